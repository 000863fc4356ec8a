// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/handlers"
	"github.com/amirphl/property-guru/app/middleware"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Config carries the server level settings the router needs
type Config struct {
	AllowOrigins   []string
	BodyLimit      int
	UploadsDir     string
	UploadsPath    string
	MetricsEnabled bool
	MetricsPath    string
	APIRateLimit   int
	AuthRateLimit  int
	Version        string
}

// Handlers groups every resource handler mounted by the router
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Agent        *handlers.AgentHandler
	Franchise    *handlers.FranchiseHandler
	Property     *handlers.PropertyHandler
	Enquiry      *handlers.EnquiryHandler
	Notification *handlers.NotificationHandler
	Geo          *handlers.GeoHandler
	Stream       *handlers.StreamHandler
	Dashboard    *handlers.DashboardHandler
	Presence     *handlers.PresenceHandler
	Captcha      *handlers.CaptchaHandler
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      Config
	handlers Handlers
	auth     *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg Config, h Handlers, auth *middleware.AuthMiddleware) Router {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 20 * 1024 * 1024
	}
	if cfg.APIRateLimit <= 0 {
		cfg.APIRateLimit = 2000
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}
	if cfg.UploadsPath == "" {
		cfg.UploadsPath = "/uploads"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	app := fiber.New(fiber.Config{
		AppName:      "Property Guru API",
		ServerHeader: "Property-Guru",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  10 * time.Second,
		// presence streams are long lived; the heartbeat keeps proxies from dropping them
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		cfg:      cfg,
		handlers: h,
		auth:     auth,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	if r.cfg.UploadsDir != "" {
		r.app.Use(r.cfg.UploadsPath, static.New(r.cfg.UploadsDir))
	}
	if r.cfg.MetricsEnabled {
		r.app.Get(r.cfg.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.APIRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimited,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	protected := r.auth.Authenticate()
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	franchiseOrAdmin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFranchise)
	lister := middleware.RequireRoles(models.RoleAgent, models.RoleFranchise, models.RoleSuperAdmin)

	h := r.handlers

	// Auth endpoints with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        r.cfg.AuthRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimited,
	}))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/signin", h.Auth.Signin)
	auth.Post("/logout", r.auth.Resolve(), h.Auth.Logout)
	auth.Get("/me", protected, h.Auth.Me)
	auth.Get("/me/:id", h.Auth.MeByID)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Post("/verify-otp", h.Auth.VerifyOTP)
	auth.Post("/reset-password", h.Auth.ResetPassword)

	users := api.Group("/users", protected, superadmin)
	users.Get("/", h.User.ListUsers)
	users.Put("/:id", h.User.UpdateUser)
	users.Delete("/:id", h.User.DeleteUser)

	agents := api.Group("/agents")
	agents.Get("/", h.Agent.ListAgents)
	agents.Get("/top5", h.Agent.TopAgents)
	agents.Post("/:franchiseId/agents", protected, franchiseOrAdmin, h.Agent.CreateFranchiseAgent)
	agents.Get("/:franchiseId/agents", protected, franchiseOrAdmin, h.Agent.ListFranchiseAgents)
	agents.Put("/:franchiseId/agents/:agentId", protected, franchiseOrAdmin, h.Agent.UpdateFranchiseAgent)
	agents.Delete("/:franchiseId/agents/:agentId", protected, franchiseOrAdmin, h.Agent.DeleteFranchiseAgent)
	agents.Put("/:id", protected, superadmin, h.Agent.UpdateAgent)
	agents.Delete("/:id", protected, superadmin, h.Agent.DeleteAgent)
	agents.Patch("/:id/toggle-status", protected, superadmin, h.Agent.ToggleAgentStatus)

	franchise := api.Group("/franchise", protected)
	franchise.Get("/stats/:franchiseId", franchiseOrAdmin, h.Dashboard.FranchiseStats)
	franchise.Post("/create", superadmin, h.Franchise.CreateFranchise)
	franchise.Get("/", superadmin, h.Franchise.ListFranchises)
	franchise.Get("/:id", superadmin, h.Franchise.GetFranchise)
	franchise.Put("/:id", superadmin, h.Franchise.UpdateFranchise)
	franchise.Delete("/:id", superadmin, h.Franchise.DeleteFranchise)
	franchise.Patch("/:id/toggle-status", superadmin, h.Franchise.ToggleFranchiseStatus)

	properties := api.Group("/properties")
	properties.Get("/", h.Property.ListProperties)
	properties.Get("/my-properties", protected, h.Property.ListMyProperties)
	properties.Get("/:id", h.Property.GetProperty)
	properties.Post("/", protected, lister, h.Property.CreateProperty)
	properties.Put("/:id", protected, lister, h.Property.UpdateProperty)
	properties.Delete("/:id", protected, lister, h.Property.DeleteProperty)

	enquiries := api.Group("/enquiries")
	enquiries.Post("/", h.Enquiry.CreateEnquiry)
	enquiries.Get("/", protected, superadmin, h.Enquiry.ListEnquiries)
	enquiries.Get("/export", protected, superadmin, h.Enquiry.ExportEnquiries)
	enquiries.Put("/:id", protected, superadmin, h.Enquiry.UpdateEnquiryStatus)
	enquiries.Delete("/:id", protected, superadmin, h.Enquiry.DeleteEnquiry)

	requirements := api.Group("/requirements")
	requirements.Post("/", h.Enquiry.CreateRequirement)
	requirements.Get("/", protected, superadmin, h.Enquiry.ListRequirements)
	requirements.Delete("/:id", protected, superadmin, h.Enquiry.DeleteRequirement)

	notifications := api.Group("/notifications", protected)
	notifications.Get("/", h.Notification.ListNotifications)
	notifications.Post("/", franchiseOrAdmin, h.Notification.CreateNotification)
	notifications.Patch("/:id/read", h.Notification.MarkNotificationRead)
	notifications.Delete("/:id", h.Notification.DeleteNotification)

	districts := api.Group("/districts")
	districts.Post("/", protected, superadmin, h.Geo.CreateDistrict)
	districts.Get("/", h.Geo.ListDistricts)

	areas := api.Group("/areas")
	areas.Post("/", protected, superadmin, h.Geo.CreateArea)
	areas.Get("/", h.Geo.ListAreas)
	areas.Get("/:id", h.Geo.GetArea)
	areas.Put("/:id", protected, superadmin, h.Geo.UpdateArea)
	areas.Delete("/:id", protected, superadmin, h.Geo.DeleteArea)

	stream := api.Group("/stream")
	stream.Post("/set", protected, superadmin, h.Stream.SetStream)
	stream.Get("/current", h.Stream.CurrentStream)
	stream.Delete("/delete", protected, superadmin, h.Stream.DeleteStream)

	api.Get("/speradmindashboard", protected, superadmin, h.Dashboard.SuperAdminStats)

	if h.Presence != nil {
		presence := api.Group("/presence", protected)
		presence.Get("/stream", h.Presence.Stream)
		presence.Get("/online", franchiseOrAdmin, h.Presence.Online)
	}

	api.Get("/captcha/new", h.Captcha.NewChallenge)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; img-src 'self' data: https:; media-src 'self' https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.AllowOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/") ||
				contains(c.Path(), "/presence/stream")
		},
	}))

	// Only the health check is cached here; domain reads go through the redis cache
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != "GET" || c.Path() != healthPath
		},
		Expiration:          30 * time.Second,
		DisableCacheControl: false,
	}))

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	r.app.Use(middleware.Metrics())

	r.app.Use(r.securityMiddleware)

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "Property-Guru")
	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success:    true,
		StatusCode: fiber.StatusOK,
		Message:    "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Version,
			"service":   "property-guru-api",
		},
		Timestamp: utils.UTCNowRFC3339(),
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Success:    false,
		StatusCode: fiber.StatusNotFound,
		Message:    fmt.Sprintf("Route %s not found", c.OriginalURL()),
		Code:       "NOT_FOUND",
		Details: fiber.Map{
			"method":     c.Method(),
			"request_id": requestid.FromContext(c),
		},
		Timestamp: utils.UTCNowRFC3339(),
	})
}

func rateLimited(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
		Success:    false,
		StatusCode: fiber.StatusTooManyRequests,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMIT_EXCEEDED",
		Timestamp:  utils.UTCNowRFC3339(),
	})
}

// errorHandler is the terminal handler for errors and recovered panics
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errorCode := "INTERNAL_ERROR"

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.ErrorResponse{
		Success:    false,
		StatusCode: code,
		Message:    message,
		Code:       errorCode,
		Details: fiber.Map{
			"request_id": requestid.FromContext(c),
		},
		Timestamp: utils.UTCNowRFC3339(),
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
