package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/handlers"
	"github.com/amirphl/property-guru/app/middleware"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/amirphl/property-guru/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenGate struct {
	accounts map[string]*models.Account
}

func (g *tokenGate) CheckLogin(ctx context.Context, account *models.Account) error {
	return nil
}

func (g *tokenGate) ResolveSession(ctx context.Context, token string) (*models.Account, error) {
	if token == "ghost" {
		return nil, businessflow.ErrUserNotFound
	}
	account, ok := g.accounts[token]
	if !ok {
		return nil, businessflow.ErrTokenInvalid
	}
	return account, nil
}

type listOnlyNotifications struct {
	businessflow.NotificationFlow
}

func (listOnlyNotifications) ListNotifications(ctx context.Context, actor *models.Account) ([]*models.Notification, error) {
	return []*models.Notification{{ID: 1, Message: "hello"}}, nil
}

func newTestRouter(t *testing.T) Router {
	t.Helper()

	gate := &tokenGate{accounts: map[string]*models.Account{
		"user-token":  {ID: 1, Role: models.RoleUser, Status: models.AccountStatusActive},
		"agent-token": {ID: 2, Role: models.RoleAgent, Status: models.AccountStatusActive},
	}}

	r := NewFiberRouter(Config{AllowOrigins: []string{"https://example.com"}}, Handlers{
		Auth:         handlers.NewAuthHandler(nil, handlers.UploadPolicy{}, handlers.SessionCookieConfig{}),
		User:         handlers.NewUserHandler(nil, handlers.UploadPolicy{}),
		Agent:        handlers.NewAgentHandler(nil, handlers.UploadPolicy{}),
		Franchise:    handlers.NewFranchiseHandler(nil, handlers.UploadPolicy{}),
		Property:     handlers.NewPropertyHandler(nil, handlers.UploadPolicy{}),
		Enquiry:      handlers.NewEnquiryHandler(nil, nil),
		Notification: handlers.NewNotificationHandler(listOnlyNotifications{}),
		Geo:          handlers.NewGeoHandler(nil),
		Stream:       handlers.NewStreamHandler(nil),
		Dashboard:    handlers.NewDashboardHandler(nil),
		Captcha:      handlers.NewCaptchaHandler(nil),
	}, middleware.NewAuthMiddleware(gate))
	r.SetupRoutes()
	return r
}

func decodeError(t *testing.T, body io.Reader) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name        string
		method      string
		path        string
		token       string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "health is public",
			method:     http.MethodGet,
			path:       "/api/v1/health",
			wantStatus: http.StatusOK,
		},
		{
			name:        "unknown route",
			method:      http.MethodGet,
			path:        "/api/v1/nowhere",
			wantStatus:  http.StatusNotFound,
			wantMessage: "Route /api/v1/nowhere not found",
		},
		{
			name:        "notifications need a session",
			method:      http.MethodGet,
			path:        "/api/v1/notifications",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authorized, token missing",
		},
		{
			name:        "invalid token",
			method:      http.MethodGet,
			path:        "/api/v1/notifications",
			token:       "forged",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authorized, token failed",
		},
		{
			name:        "deleted account",
			method:      http.MethodGet,
			path:        "/api/v1/notifications",
			token:       "ghost",
			wantStatus:  http.StatusNotFound,
			wantMessage: "User not found",
		},
		{
			name:        "notifications list for a user",
			method:      http.MethodGet,
			path:        "/api/v1/notifications",
			token:       "user-token",
			wantStatus:  http.StatusOK,
			wantMessage: "Notifications fetched",
		},
		{
			name:        "users listing is superadmin only",
			method:      http.MethodGet,
			path:        "/api/v1/users",
			token:       "agent-token",
			wantStatus:  http.StatusForbidden,
			wantMessage: "Forbidden: insufficient role",
		},
		{
			name:        "broadcast needs franchise or superadmin",
			method:      http.MethodPost,
			path:        "/api/v1/notifications",
			token:       "user-token",
			wantStatus:  http.StatusForbidden,
			wantMessage: "Forbidden: insufficient role",
		},
		{
			name:        "users cannot create properties",
			method:      http.MethodPost,
			path:        "/api/v1/properties",
			token:       "user-token",
			wantStatus:  http.StatusForbidden,
			wantMessage: "Forbidden: insufficient role",
		},
		{
			name:        "captcha disabled",
			method:      http.MethodGet,
			path:        "/api/v1/captcha/new",
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: "Captcha is disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := r.GetApp().Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

			if tt.wantMessage != "" {
				body := decodeError(t, resp.Body)
				assert.Equal(t, tt.wantMessage, body.Message)
				assert.Equal(t, tt.wantStatus, body.StatusCode)
			}
		})
	}
}

func TestHealthEnvelope(t *testing.T) {
	r := newTestRouter(t)

	resp, err := r.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, http.StatusOK, body.StatusCode)
	assert.NotEmpty(t, body.Timestamp)

	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "property-guru-api", data["service"])
}

func TestAuthLimiter(t *testing.T) {
	gate := &tokenGate{accounts: map[string]*models.Account{}}
	r := NewFiberRouter(Config{AuthRateLimit: 1}, Handlers{
		Auth:         handlers.NewAuthHandler(nil, handlers.UploadPolicy{}, handlers.SessionCookieConfig{}),
		User:         handlers.NewUserHandler(nil, handlers.UploadPolicy{}),
		Agent:        handlers.NewAgentHandler(nil, handlers.UploadPolicy{}),
		Franchise:    handlers.NewFranchiseHandler(nil, handlers.UploadPolicy{}),
		Property:     handlers.NewPropertyHandler(nil, handlers.UploadPolicy{}),
		Enquiry:      handlers.NewEnquiryHandler(nil, nil),
		Notification: handlers.NewNotificationHandler(nil),
		Geo:          handlers.NewGeoHandler(nil),
		Stream:       handlers.NewStreamHandler(nil),
		Dashboard:    handlers.NewDashboardHandler(nil),
		Captcha:      handlers.NewCaptchaHandler(nil),
	}, middleware.NewAuthMiddleware(gate))
	r.SetupRoutes()

	first, err := r.GetApp().Test(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := r.GetApp().Test(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	require.NoError(t, err)
	defer second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, second.Body).Code)
}
