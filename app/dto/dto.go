// Package dto contains Data Transfer Objects for API request and response structures
package dto

// APIResponse is the success envelope of every endpoint
type APIResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Timestamp  string `json:"timestamp"`
}

// ErrorResponse is the failure envelope of every endpoint
type ErrorResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Details    any    `json:"details"`
	Timestamp  string `json:"timestamp"`
}

// CaptchaFields are carried by public form submissions
type CaptchaFields struct {
	CaptchaID    string   `json:"captchaId" form:"captchaId" validate:"omitempty,max=64"`
	CaptchaAngle *float64 `json:"captchaAngle" form:"captchaAngle" validate:"omitempty,gte=0,lte=360"`
}

// CaptchaChallengeResponse is returned by GET /captcha/new
type CaptchaChallengeResponse struct {
	ID          string `json:"id"`
	MasterImage string `json:"masterImage"`
	ThumbImage  string `json:"thumbImage"`
}

// PresenceOnlineResponse lists the accounts holding an open presence stream
type PresenceOnlineResponse struct {
	Count      int    `json:"count"`
	AccountIDs []uint `json:"accountIds"`
}
