package handlers

import (
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/middleware"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/amirphl/property-guru/utils"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Signin(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	MeByID(c fiber.Ctx) error
	ForgotPassword(c fiber.Ctx) error
	VerifyOTP(c fiber.Ctx) error
	ResetPassword(c fiber.Ctx) error
}

// SessionCookieConfig shapes the session cookie written at signup and signin
type SessionCookieConfig struct {
	Secure bool
	Domain string
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	baseHandler
	authFlow businessflow.AuthFlow
	uploads  UploadPolicy
	cookie   SessionCookieConfig
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow, uploads UploadPolicy, cookie SessionCookieConfig) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(),
		authFlow:    authFlow,
		uploads:     uploads,
		cookie:      cookie,
	}
}

func (h *AuthHandler) setSessionCookie(c fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   utils.SessionTTLSeconds,
		Expires:  expiresAt,
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  time.Unix(0, 0),
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

// Signup handles account registration
// @Summary Account Registration
// @Description Register a user or agent account with an avatar
// @Tags Authentication
// @Accept mpfd
// @Produce json
// @Param request formData dto.SignupRequest true "Account registration data"
// @Param avatar formData file true "Avatar image"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Failure 409 {object} dto.ErrorResponse "User already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	avatarPath, err := h.uploads.stageOptional(c, "avatar")
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/signup")
	defer cancel()

	result, err := h.authFlow.Signup(ctx, &req, avatarPath, h.metadata(c))
	if err != nil {
		return h.FlowError(c, err, "User", "Signup")
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	return h.SuccessResponse(c, fiber.StatusCreated, "User registered successfully", result)
}

// Signin handles login with email or contact
// @Summary Login
// @Description Authenticate with identifier (email or contact) and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account or franchise inactive"
// @Failure 404 {object} dto.ErrorResponse "User does not exist"
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) Signin(c fiber.Ctx) error {
	var req dto.LoginRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/signin")
	defer cancel()

	result, err := h.authFlow.Login(ctx, &req, h.metadata(c))
	if err != nil {
		return h.FlowError(c, err, "User", "Login")
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Logout clears the session cookie
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse "Logged out"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if account, ok := middleware.GetAccountFromContext(c); ok {
		h.authFlow.Logout(ctx, account, h.metadata(c))
	}

	h.clearSessionCookie(c)
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

// Me returns the current account
// @Summary Current account
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Account} "User fetched"
// @Failure 401 {object} dto.ErrorResponse "Not authorized"
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	account, err := h.account(c)
	if account == nil {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/me")
	defer cancel()

	user, err := h.authFlow.Me(ctx, account.ID)
	if err != nil {
		return h.FlowError(c, err, "User", "Fetch current user")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User fetched successfully", user)
}

// MeByID returns a public account lookup
// @Summary Account by id
// @Tags Authentication
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=models.Account} "User fetched"
// @Failure 400 {object} dto.ErrorResponse "User ID is required"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /api/v1/auth/me/{id} [get]
func (h *AuthHandler) MeByID(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "User ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/me/:id")
	defer cancel()

	user, err := h.authFlow.Me(ctx, id)
	if err != nil {
		return h.FlowError(c, err, "User", "Fetch user")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User fetched successfully", user)
}

// ForgotPassword emails a password reset code
// @Summary Forgot password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.APIResponse "Reset code sent when the account exists"
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/forgot-password")
	defer cancel()

	if err := h.authFlow.ForgotPassword(ctx, &req, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "User", "Forgot password")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "If the email is registered, a reset code has been sent", fiber.Map{
		"expires_in": int(utils.OTPExpiry.Seconds()),
	})
}

// VerifyOTP checks a password reset code without consuming it
// @Summary Verify reset code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Email and code"
// @Success 200 {object} dto.APIResponse "Code is valid"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired OTP"
// @Router /api/v1/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/verify-otp")
	defer cancel()

	if err := h.authFlow.VerifyOTP(ctx, &req); err != nil {
		return h.FlowError(c, err, "User", "OTP verification")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "OTP verified successfully", nil)
}

// ResetPassword sets a new password with a valid reset code
// @Summary Reset password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} dto.APIResponse "Password reset"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired OTP"
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/reset-password")
	defer cancel()

	if err := h.authFlow.ResetPassword(ctx, &req, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "User", "Password reset")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Password reset successfully", nil)
}
