// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration of the service
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	Email      EmailConfig      `json:"email"`
	Media      MediaConfig      `json:"media"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Captcha    CaptchaConfig    `json:"captcha"`
	Presence   PresenceConfig   `json:"presence"`
	Admin      AdminConfig      `json:"admin"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	AutoMigrate     bool          `json:"auto_migrate"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	TempDir         string        `json:"temp_dir"`
}

type SecurityConfig struct {
	AllowedOrigins      []string `json:"allowed_origins"`
	AuthRateLimit       int      `json:"auth_rate_limit"`   // requests per minute
	GlobalRateLimit     int      `json:"global_rate_limit"` // requests per minute
	BcryptCost          int      `json:"bcrypt_cost"`
	SessionCookieSecure bool     `json:"session_cookie_secure"`
	SessionCookieDomain string   `json:"session_cookie_domain"`
	MaxUploadBytes      int64    `json:"max_upload_bytes"`
}

type JWTConfig struct {
	SecretKey  string        `json:"secret_key"`
	PrivateKey string        `json:"private_key"`  // RSA private key in PEM format
	PublicKey  string        `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys bool          `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	SessionTTL time.Duration `json:"session_ttl"`
	Issuer     string        `json:"issuer"`
	Audience   string        `json:"audience"`
}

type EmailConfig struct {
	Provider      string  `json:"provider"` // mock, ses
	Region        string  `json:"region"`
	FromEmail     string  `json:"from_email"`
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
}

type MediaConfig struct {
	Provider          string        `json:"provider"` // local, cloudinary
	CloudinaryBaseURL string        `json:"cloudinary_base_url"`
	CloudName         string        `json:"cloud_name"`
	APIKey            string        `json:"api_key"`
	APISecret         string        `json:"api_secret"`
	Timeout           time.Duration `json:"timeout"`
	UploadsDir        string        `json:"uploads_dir"`
	PublicBaseURL     string        `json:"public_base_url"`
	MaxImageDimension int           `json:"max_image_dimension"`

	BreakerMaxRequests  uint32        `json:"breaker_max_requests"`
	BreakerInterval     time.Duration `json:"breaker_interval"`
	BreakerTimeout      time.Duration `json:"breaker_timeout"`
	BreakerFailureRatio float64       `json:"breaker_failure_ratio"`
	BreakerMinRequests  uint32        `json:"breaker_min_requests"`
}

type LoggingConfig struct {
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type CaptchaConfig struct {
	Enabled   bool          `json:"enabled"`
	TTL       time.Duration `json:"ttl"`
	Padding   int           `json:"padding"`
	ImageSize int           `json:"image_size"`
}

type PresenceConfig struct {
	Enabled       bool          `json:"enabled"`
	Heartbeat     time.Duration `json:"heartbeat"`
	MirrorEnabled bool          `json:"mirror_enabled"`
	MirrorKey     string        `json:"mirror_key"`
}

// AdminConfig seeds the superadmin account on first start
type AdminConfig struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Password string `json:"-"`
}

type DeploymentConfig struct {
	Domain      string `json:"domain"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// IsProduction reports whether APP_ENV selects production
func (d DeploymentConfig) IsProduction() bool {
	return strings.EqualFold(d.Environment, "production")
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "property_guru"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 5000),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 20*1024*1024), // 20MB
			TempDir:         getEnvString("SERVER_TEMP_DIR", os.TempDir()),
		},
		Security: SecurityConfig{
			AllowedOrigins:      getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 20),
			GlobalRateLimit:     getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			BcryptCost:          getEnvInt("BCRYPT_COST", 10),
			SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
			SessionCookieDomain: getEnvString("SESSION_COOKIE_DOMAIN", ""),
			MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 2*1024*1024)),
		},
		JWT: JWTConfig{
			SecretKey:  getEnvString("JWT_SECRET", ""),
			PrivateKey: getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:  getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys: getEnvBool("JWT_USE_RSA_KEYS", false),
			SessionTTL: getEnvDuration("JWT_SESSION_TTL", 7*24*time.Hour),
			Issuer:     getEnvString("JWT_ISSUER", "property-guru"),
			Audience:   getEnvString("JWT_AUDIENCE", "property-guru-api"),
		},
		Email: EmailConfig{
			Provider:      getEnvString("EMAIL_PROVIDER", "mock"),
			Region:        getEnvString("EMAIL_SES_REGION", "us-east-1"),
			FromEmail:     getEnvString("EMAIL_FROM", "noreply@property-guru.com"),
			RatePerSecond: getEnvFloat("EMAIL_RATE_PER_SECOND", 5),
			Burst:         getEnvInt("EMAIL_BURST", 5),
		},
		Media: MediaConfig{
			Provider:            getEnvString("MEDIA_PROVIDER", "local"),
			CloudinaryBaseURL:   getEnvString("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
			CloudName:           getEnvString("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:              getEnvString("CLOUDINARY_API_KEY", ""),
			APISecret:           getEnvString("CLOUDINARY_API_SECRET", ""),
			Timeout:             getEnvDuration("MEDIA_UPLOAD_TIMEOUT", 60*time.Second),
			UploadsDir:          getEnvString("MEDIA_UPLOADS_DIR", "./uploads"),
			PublicBaseURL:       getEnvString("MEDIA_PUBLIC_BASE_URL", "/uploads"),
			MaxImageDimension:   getEnvInt("MEDIA_MAX_IMAGE_DIMENSION", 1920),
			BreakerMaxRequests:  uint32(getEnvInt("MEDIA_BREAKER_MAX_REQUESTS", 1)),
			BreakerInterval:     getEnvDuration("MEDIA_BREAKER_INTERVAL", 60*time.Second),
			BreakerTimeout:      getEnvDuration("MEDIA_BREAKER_TIMEOUT", 30*time.Second),
			BreakerFailureRatio: getEnvFloat("MEDIA_BREAKER_FAILURE_RATIO", 0.6),
			BreakerMinRequests:  uint32(getEnvInt("MEDIA_BREAKER_MIN_REQUESTS", 5)),
		},
		Logging: LoggingConfig{
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "/var/log/property-guru/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", false),
			RedisURL:        getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "property-guru:"),
			DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 1*time.Minute),
		},
		Captcha: CaptchaConfig{
			Enabled:   getEnvBool("CAPTCHA_ENABLED", true),
			TTL:       getEnvDuration("CAPTCHA_TTL", 2*time.Minute),
			Padding:   getEnvInt("CAPTCHA_PADDING", 8),
			ImageSize: getEnvInt("CAPTCHA_IMAGE_SIZE", 220),
		},
		Presence: PresenceConfig{
			Enabled:       getEnvBool("PRESENCE_ENABLED", true),
			Heartbeat:     getEnvDuration("PRESENCE_HEARTBEAT", 25*time.Second),
			MirrorEnabled: getEnvBool("PRESENCE_MIRROR_ENABLED", false),
			MirrorKey:     getEnvString("PRESENCE_MIRROR_KEY", "presence:online"),
		},
		Admin: AdminConfig{
			Name:     getEnvString("ADMIN_NAME", "Super Admin"),
			Email:    getEnvString("ADMIN_EMAIL", ""),
			Contact:  getEnvString("ADMIN_CONTACT", ""),
			Password: getEnvString("ADMIN_PASSWORD", ""),
		},
		Deployment: DeploymentConfig{
			Domain:      getEnvString("DOMAIN", "localhost"),
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads variables from path when it exists; variables already set win
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig reports every problem found, joined with "; "
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var problems []string

	if cfg.Database.Host == "" {
		problems = append(problems, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		problems = append(problems, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		problems = append(problems, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		problems = append(problems, "DB_USER is required")
	}

	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			problems = append(problems, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if cfg.JWT.SecretKey == "" {
		if cfg.Deployment.IsProduction() {
			problems = append(problems, "JWT_SECRET is required")
		}
	} else if cfg.Deployment.IsProduction() && len(cfg.JWT.SecretKey) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 characters long")
	}
	if cfg.JWT.SessionTTL <= 0 {
		problems = append(problems, "JWT_SESSION_TTL must be positive")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		problems = append(problems, "BCRYPT_COST must be between 10 and 14")
	}
	if cfg.Security.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}

	switch cfg.Email.Provider {
	case "mock":
	case "ses":
		if cfg.Email.FromEmail == "" {
			problems = append(problems, "EMAIL_FROM is required for the ses provider")
		}
	default:
		problems = append(problems, "EMAIL_PROVIDER must be mock or ses")
	}

	switch cfg.Media.Provider {
	case "local":
		if cfg.Media.UploadsDir == "" {
			problems = append(problems, "MEDIA_UPLOADS_DIR is required for the local provider")
		}
	case "cloudinary":
		if cfg.Media.CloudName == "" || cfg.Media.APIKey == "" || cfg.Media.APISecret == "" {
			problems = append(problems, "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary provider")
		}
	default:
		problems = append(problems, "MEDIA_PROVIDER must be local or cloudinary")
	}

	switch cfg.Logging.Output {
	case "stdout":
	case "file", "both":
		if cfg.Logging.FilePath == "" {
			problems = append(problems, "LOG_FILE_PATH is required when logging to a file")
		}
	default:
		problems = append(problems, "LOG_OUTPUT must be stdout, file or both")
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		problems = append(problems, "CACHE_REDIS_URL is required when the cache is enabled")
	}
	if cfg.Presence.MirrorEnabled && !cfg.Cache.Enabled {
		problems = append(problems, "PRESENCE_MIRROR_ENABLED needs CACHE_ENABLED")
	}

	if (cfg.Admin.Email == "") != (cfg.Admin.Password == "") {
		problems = append(problems, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if cfg.Admin.Password != "" && len(cfg.Admin.Password) < 6 {
		problems = append(problems, "ADMIN_PASSWORD must be at least 6 characters long")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}
