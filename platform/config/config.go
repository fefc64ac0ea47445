// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// DeviceAuthConfig provides settings for device token issuance and validation.
type DeviceAuthConfig interface {
	GetDeviceJWTSecret() string
	GetDeviceTokenTTL() time.Duration
	GetDeviceSecretHash() string
}

// ReconcilerConfig provides tuning windows for the call reconciliation engine.
type ReconcilerConfig interface {
	GetDedupeWindow() time.Duration
	GetAutoFinalizeWindow() time.Duration
	GetIdleExpiryWindow() time.Duration
	GetRemovalGraceDelay() time.Duration
}

// ScreenConfig provides settings for the call-screen gate.
type ScreenConfig interface {
	GetScreenCloseSettleDelay() time.Duration
	GetScreenRetryDelay() time.Duration
}

// EmailConfig provides settings for ops alert email.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAlertRecipient() string
}

// SchedulerConfig provides settings for the background job worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ClassifierConfig provides settings for outcome label classification.
type ClassifierConfig interface {
	GetOutcomeAliasFile() string
}

// WebhookConfig provides settings for the device event webhook.
type WebhookConfig interface {
	GetDeliveryDedupeTTL() time.Duration
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration. It satisfies every module
// config interface above.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL      string
	RedisURL         string
	RedisTLSInsecure bool

	DeviceJWTSecret  string
	DeviceTokenTTL   time.Duration
	DeviceSecretHash string

	CORSAllowAll   bool
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Reconciliation engine windows.
	DedupeWindow       time.Duration
	AutoFinalizeWindow time.Duration
	IdleExpiryWindow   time.Duration
	RemovalGraceDelay  time.Duration

	// Call-screen gate delays.
	ScreenCloseSettleDelay time.Duration
	ScreenRetryDelay       time.Duration

	OutcomeAliasFile  string
	DeliveryDedupeTTL time.Duration

	AsynqQueueName   string
	AsynqConcurrency int

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	AlertRecipient   string
}

// Load reads configuration from the environment, applying .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),

		DeviceJWTSecret:  getEnv("DEVICE_JWT_SECRET", ""),
		DeviceTokenTTL:   getDuration("DEVICE_TOKEN_TTL", 30*24*time.Hour),
		DeviceSecretHash: getEnv("DEVICE_SECRET_HASH", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 25),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 50),

		DedupeWindow:       getMillis("CALL_DEDUPE_WINDOW_MS", 800),
		AutoFinalizeWindow: getMillis("CALL_AUTO_FINALIZE_MS", 8000),
		IdleExpiryWindow:   getMillis("CALL_IDLE_EXPIRY_MS", 60000),
		RemovalGraceDelay:  getMillis("CALL_REMOVAL_GRACE_MS", 500),

		ScreenCloseSettleDelay: getMillis("SCREEN_CLOSE_SETTLE_MS", 250),
		ScreenRetryDelay:       getMillis("SCREEN_RETRY_MS", 300),

		OutcomeAliasFile:  getEnv("OUTCOME_ALIAS_FILE", ""),
		DeliveryDedupeTTL: getDuration("DELIVERY_DEDUPE_TTL", 24*time.Hour),

		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getInt("ASYNQ_CONCURRENCY", 10),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Leadline"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		AlertRecipient:   getEnv("ALERT_RECIPIENT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DeviceJWTSecret == "" {
		return nil, fmt.Errorf("DEVICE_JWT_SECRET is required")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

func (c *Config) GetDeviceJWTSecret() string       { return c.DeviceJWTSecret }
func (c *Config) GetDeviceTokenTTL() time.Duration { return c.DeviceTokenTTL }
func (c *Config) GetDeviceSecretHash() string      { return c.DeviceSecretHash }

func (c *Config) GetDedupeWindow() time.Duration       { return c.DedupeWindow }
func (c *Config) GetAutoFinalizeWindow() time.Duration { return c.AutoFinalizeWindow }
func (c *Config) GetIdleExpiryWindow() time.Duration   { return c.IdleExpiryWindow }
func (c *Config) GetRemovalGraceDelay() time.Duration  { return c.RemovalGraceDelay }

func (c *Config) GetScreenCloseSettleDelay() time.Duration { return c.ScreenCloseSettleDelay }
func (c *Config) GetScreenRetryDelay() time.Duration       { return c.ScreenRetryDelay }

func (c *Config) GetOutcomeAliasFile() string         { return c.OutcomeAliasFile }
func (c *Config) GetDeliveryDedupeTTL() time.Duration { return c.DeliveryDedupeTTL }

func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetAlertRecipient() string   { return c.AlertRecipient }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getMillis reads an integer millisecond value; the engine windows are
// documented in milliseconds.
func getMillis(key string, fallbackMs int) time.Duration {
	return time.Duration(getInt(key, fallbackMs)) * time.Millisecond
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
