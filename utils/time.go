// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowAdd returns the current UTC time plus the given duration
func UTCNowAdd(d time.Duration) time.Time {
	return UTCNow().Add(d)
}

// UTCNowRFC3339 returns the current UTC time in RFC3339 format with milliseconds
func UTCNowRFC3339() string {
	return UTCNow().Format("2006-01-02T15:04:05.000Z07:00")
}

// IsExpiredPtr reports whether t is set and in the past
func IsExpiredPtr(t *time.Time) bool {
	if t == nil {
		return true
	}
	return UTCNow().After(*t)
}
