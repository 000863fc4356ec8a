package utils

import (
	"time"
)

// Session constants
const (
	// SessionTTL is the lifetime of an issued session token (7 days)
	SessionTTL = 7 * 24 * time.Hour

	// SessionTTLSeconds is SessionTTL in seconds, used for the cookie max-age
	SessionTTLSeconds = 7 * 24 * 60 * 60

	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "jwt"

	// OTPExpiry is the time-to-live for password reset codes (10 minutes)
	OTPExpiry = 10 * time.Minute

	// OTPLength is the number of digits in a password reset code
	OTPLength = 6

	// OTPMaxAttempts is the number of wrong codes after which the reset code is discarded
	OTPMaxAttempts = 5
)

// Listing constants
const (
	// MaxPropertyImages is the maximum number of images stored on a property
	MaxPropertyImages = 4

	// DefaultPageSize is used when a list request carries no limit
	DefaultPageSize = 50

	// MaxPageSize caps the limit a client may request
	MaxPageSize = 200

	// TopAgentsLimit is the size of the newest agents list
	TopAgentsLimit = 5
)

// Media constants
const (
	// DefaultMediaFolder is the remote folder uploads are placed in
	DefaultMediaFolder = "property_site"

	// ResourceTypeAuto lets the media backend detect the resource type
	ResourceTypeAuto = "auto"
	ResourceTypeImage = "image"
	ResourceTypeVideo = "video"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400

	// BcryptCost is used when no cost is configured; it matches earlier deployments
	BcryptCost = 10
)
