// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"github.com/gofiber/fiber/v3"
)

const accountLocalKey = "account"

// sessionLookupTimeout bounds the account reload done for every protected request
const sessionLookupTimeout = 5 * time.Second

// AuthMiddleware resolves the session of protected endpoints
type AuthMiddleware struct {
	gate businessflow.AccessGate
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(gate businessflow.AccessGate) *AuthMiddleware {
	return &AuthMiddleware{
		gate: gate,
	}
}

func errorJSON(c fiber.Ctx, statusCode int, message, code string) error {
	return c.Status(statusCode).JSON(dto.ErrorResponse{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
		Timestamp:  utils.UTCNowRFC3339(),
	})
}

// sessionToken reads the session cookie, then the bearer header
func sessionToken(c fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(utils.SessionCookieName)); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Authenticate reloads the session account and stores it for downstream handlers
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			gateDecisions.WithLabelValues("missing").Inc()
			return errorJSON(c, fiber.StatusUnauthorized, "Not authorized, token missing", "TOKEN_MISSING")
		}

		ctx, cancel := context.WithTimeout(context.Background(), sessionLookupTimeout)
		defer cancel()

		account, err := m.gate.ResolveSession(ctx, token)
		switch {
		case err == nil:
		case businessflow.IsUserNotFound(err):
			gateDecisions.WithLabelValues("unknown_account").Inc()
			return errorJSON(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		case businessflow.IsTokenMissing(err):
			gateDecisions.WithLabelValues("missing").Inc()
			return errorJSON(c, fiber.StatusUnauthorized, "Not authorized, token missing", "TOKEN_MISSING")
		default:
			gateDecisions.WithLabelValues("rejected").Inc()
			return errorJSON(c, fiber.StatusUnauthorized, "Not authorized, token failed", "TOKEN_FAILED")
		}

		gateDecisions.WithLabelValues("allowed").Inc()
		c.Locals(accountLocalKey, account)

		return c.Next()
	}
}

// Resolve stores the session account when the token is valid and never rejects the request
func (m *AuthMiddleware) Resolve() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(context.Background(), sessionLookupTimeout)
		defer cancel()

		if account, err := m.gate.ResolveSession(ctx, token); err == nil {
			c.Locals(accountLocalKey, account)
		}
		return c.Next()
	}
}

// RequireRoles lets the request through only when the session account holds one of roles.
// It must run after Authenticate.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		account, ok := GetAccountFromContext(c)
		if !ok {
			return errorJSON(c, fiber.StatusUnauthorized, "Not authorized, token missing", "TOKEN_MISSING")
		}
		if !slices.Contains(roles, account.Role) {
			return errorJSON(c, fiber.StatusForbidden, "Forbidden: insufficient role", "INSUFFICIENT_ROLE")
		}
		return c.Next()
	}
}

// GetAccountFromContext returns the account stored by Authenticate
func GetAccountFromContext(c fiber.Ctx) (*models.Account, bool) {
	account, ok := c.Locals(accountLocalKey).(*models.Account)
	return account, ok && account != nil
}
