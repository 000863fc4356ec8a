package dto

import (
	"strings"
	"time"

	"github.com/amirphl/property-guru/models"
)

// SignupRequest is the multipart payload of POST /auth/signup
type SignupRequest struct {
	Name        string `json:"name" form:"name" validate:"required,min=2,max=255"`
	Contact     string `json:"contact" form:"contact" validate:"required,min=5,max=20"`
	Email       string `json:"email" form:"email" validate:"required,email,max=255"`
	Password    string `json:"password" form:"password" validate:"required,min=6,max=100"`
	Role        string `json:"role" form:"role" validate:"omitempty,max=20"`
	FranchiseID *uint  `json:"franchiseId" form:"franchiseId" validate:"omitempty,gt=0"`
}

// LoginRequest accepts the identifier under any of its historical field names
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"omitempty,max=255"`
	Email      string `json:"email" validate:"omitempty,max=255"`
	Contact    string `json:"contact" validate:"omitempty,max=20"`
	Password   string `json:"password" validate:"required,max=100"`
}

// ResolvedIdentifier returns identifier, then email, then contact
func (r *LoginRequest) ResolvedIdentifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Contact} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// AuthResponse is returned by signup and signin
type AuthResponse struct {
	User      *models.Account `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"-"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}
