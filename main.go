// Package main provides the main entry point for the Property Guru marketplace API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amirphl/property-guru/app/handlers"
	"github.com/amirphl/property-guru/app/middleware"
	"github.com/amirphl/property-guru/app/router"
	"github.com/amirphl/property-guru/app/services"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/amirphl/property-guru/config"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	presence  services.PresenceRegistry
	stopFuncs []func()
}

func main() {
	log.Println("Starting Property Guru application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if app.presence != nil {
		if err := app.presence.Start(ctx); err != nil {
			log.Fatalf("Failed to start presence registry: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Closing presence ends every open stream so the server can drain
	if app.presence != nil {
		if err := app.presence.Close(); err != nil {
			log.Printf("Error closing presence registry: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotated file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	if cfg.Output == "stdout" {
		return func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		log.Printf("Failed to create log directory, logging to stdout: %v", err)
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)

	return func() {
		_ = rotator.Close()
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.SlowQueryLog {
		gormLogger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: utils.UTCNow,
		// foreign keys come from migrations/*.sql; accounts and franchises reference each other
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		for _, ddl := range []string{models.PropertySearchFunctionDDL, models.PropertySearchIndexDDL} {
			if err := db.Exec(ddl).Error; err != nil {
				return nil, fmt.Errorf("failed to create search index: %w", err)
			}
		}
		log.Println("Database schema migrated")
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService picks the email provider named by the configuration
func initializeNotificationService(cfg config.EmailConfig) (services.NotificationService, error) {
	var emailProvider services.EmailProvider

	switch cfg.Provider {
	case "ses":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider, err := services.NewSESEmailProvider(ctx, cfg.Region, cfg.FromEmail)
		if err != nil {
			return nil, err
		}
		emailProvider = provider
	default:
		emailProvider = services.NewMockEmailProvider()
	}

	return services.NewNotificationService(emailProvider, cfg.RatePerSecond, cfg.Burst), nil
}

// initializeUploader builds the media store and wraps it with the image optimizer
func initializeUploader(cfg config.MediaConfig) (services.MediaUploader, error) {
	var uploader services.MediaUploader
	var err error

	switch cfg.Provider {
	case "cloudinary":
		uploader, err = services.NewCloudinaryUploader(
			cfg.CloudinaryBaseURL,
			cfg.CloudName,
			cfg.APIKey,
			cfg.APISecret,
			cfg.Timeout,
			services.BreakerSettings{
				MaxRequests:  cfg.BreakerMaxRequests,
				Interval:     cfg.BreakerInterval,
				Timeout:      cfg.BreakerTimeout,
				FailureRatio: cfg.BreakerFailureRatio,
				MinRequests:  cfg.BreakerMinRequests,
			},
		)
	default:
		uploader, err = services.NewLocalMediaStore(cfg.UploadsDir, cfg.PublicBaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media uploader: %w", err)
	}

	log.Printf("Media uploader initialized (provider=%s)", cfg.Provider)
	return services.NewOptimizingUploader(uploader, cfg.MaxImageDimension), nil
}

// initializeCaptcha returns nil when captcha is disabled
func initializeCaptcha(cfg config.CaptchaConfig, rc *redis.Client, prefix string) (services.CaptchaService, error) {
	if !cfg.Enabled {
		log.Println("Captcha disabled")
		return nil, nil
	}

	store := services.NewMemoryChallengeStore()
	if rc != nil {
		store = services.NewRedisChallengeStore(rc, prefix)
	}

	return services.NewCaptchaServiceRotate(store, cfg.TTL, cfg.Padding, cfg.ImageSize)
}

// ensureSuperAdmin creates the configured superadmin account when it does not exist yet
func ensureSuperAdmin(ctx context.Context, accountRepo repository.AccountRepository, cfg config.AdminConfig, cost int) error {
	if cfg.Email == "" {
		return nil
	}

	existing, err := accountRepo.ByEmail(ctx, utils.NormalizeEmail(cfg.Email))
	if err != nil {
		return fmt.Errorf("failed to look up superadmin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), cost)
	if err != nil {
		return fmt.Errorf("failed to hash superadmin password: %w", err)
	}

	admin := &models.Account{
		Name:         cfg.Name,
		Email:        utils.NormalizeEmail(cfg.Email),
		Contact:      cfg.Contact,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		Status:       models.AccountStatusActive,
	}
	if err := accountRepo.Save(ctx, admin); err != nil {
		return fmt.Errorf("failed to create superadmin: %w", err)
	}

	log.Printf("Superadmin account %s created", admin.Email)
	return nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	franchiseRepo := repository.NewFranchiseRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	enquiryRepo := repository.NewEnquiryRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	districtRepo := repository.NewDistrictRepository(db)
	areaRepo := repository.NewAreaRepository(db)
	streamRepo := repository.NewStreamRepository(db)
	tx := repository.NewTransactor(db)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer seedCancel()
	if err := ensureSuperAdmin(seedCtx, accountRepo, cfg.Admin, cfg.Security.BcryptCost); err != nil {
		return nil, err
	}

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.SessionTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	notificationService, err := initializeNotificationService(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notification service: %w", err)
	}

	uploader, err := initializeUploader(cfg.Media)
	if err != nil {
		return nil, err
	}

	captchaSvc, err := initializeCaptcha(cfg.Captcha, rc, cfg.Cache.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha: %w", err)
	}

	cache := services.NewRedisCache(rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL)
	sanitizer := services.NewSanitizer()

	var presence services.PresenceRegistry
	if cfg.Presence.Enabled {
		var mirror *redis.Client
		if cfg.Presence.MirrorEnabled {
			mirror = rc
		}
		presence = services.NewPresenceRegistry(mirror, cfg.Cache.RedisPrefix+cfg.Presence.MirrorKey)
	}

	// Initialize flows
	gate := businessflow.NewAccessGate(accountRepo, franchiseRepo, tokenService)
	authFlow := businessflow.NewAuthFlow(accountRepo, franchiseRepo, auditRepo, tx, gate, tokenService, notificationService, uploader, cfg.Security.BcryptCost)
	userFlow := businessflow.NewUserFlow(accountRepo, franchiseRepo, auditRepo, tx, uploader)
	agentFlow := businessflow.NewAgentFlow(accountRepo, franchiseRepo, auditRepo, tx, uploader, cfg.Security.BcryptCost)
	franchiseFlow := businessflow.NewFranchiseFlow(accountRepo, franchiseRepo, auditRepo, tx, uploader, cfg.Security.BcryptCost)
	propertyFlow := businessflow.NewPropertyFlow(propertyRepo, uploader, sanitizer)
	enquiryFlow := businessflow.NewEnquiryFlow(enquiryRepo, sanitizer, captchaSvc)
	requirementFlow := businessflow.NewRequirementFlow(requirementRepo, sanitizer, captchaSvc)
	notificationFlow := businessflow.NewNotificationFlow(notificationRepo, accountRepo, sanitizer)
	geoFlow := businessflow.NewGeoFlow(districtRepo, areaRepo, cache)
	streamFlow := businessflow.NewStreamFlow(streamRepo, cache)
	dashboardFlow := businessflow.NewDashboardFlow(accountRepo, franchiseRepo, propertyRepo)

	// Initialize handlers
	uploads := handlers.UploadPolicy{
		TempDir:  cfg.Server.TempDir,
		MaxBytes: cfg.Security.MaxUploadBytes,
	}
	cookie := handlers.SessionCookieConfig{
		Secure: cfg.Security.SessionCookieSecure,
		Domain: cfg.Security.SessionCookieDomain,
	}

	h := router.Handlers{
		Auth:         handlers.NewAuthHandler(authFlow, uploads, cookie),
		User:         handlers.NewUserHandler(userFlow, uploads),
		Agent:        handlers.NewAgentHandler(agentFlow, uploads),
		Franchise:    handlers.NewFranchiseHandler(franchiseFlow, uploads),
		Property:     handlers.NewPropertyHandler(propertyFlow, uploads),
		Enquiry:      handlers.NewEnquiryHandler(enquiryFlow, requirementFlow),
		Notification: handlers.NewNotificationHandler(notificationFlow),
		Geo:          handlers.NewGeoHandler(geoFlow),
		Stream:       handlers.NewStreamHandler(streamFlow),
		Dashboard:    handlers.NewDashboardHandler(dashboardFlow),
		Captcha:      handlers.NewCaptchaHandler(captchaSvc),
	}
	if presence != nil {
		h.Presence = handlers.NewPresenceHandler(presence, cfg.Presence.Heartbeat)
	}

	uploadsDir := ""
	if cfg.Media.Provider == "local" {
		uploadsDir = cfg.Media.UploadsDir
	}

	appRouter := router.NewFiberRouter(router.Config{
		AllowOrigins:   cfg.Security.AllowedOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		UploadsDir:     uploadsDir,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		APIRateLimit:   cfg.Security.GlobalRateLimit,
		AuthRateLimit:  cfg.Security.AuthRateLimit,
		Version:        cfg.Deployment.Version,
	}, h, middleware.NewAuthMiddleware(gate))

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		presence:  presence,
		stopFuncs: stopFuncs,
	}, nil
}
