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

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RateLimitConfig provides settings for the per-IP API rate limiter.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the Redis-backed task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetWorkerMetricsAddr() string
}

// AssignmentConfig provides settings for the assignment engine.
type AssignmentConfig interface {
	GetAssignmentInitialDelay() time.Duration
	GetAssignmentNoCandidateDelay() time.Duration
	GetAssignmentMaxAttempts() int
	GetAssignmentBackoffBase() time.Duration
	GetAssignmentFilterConcurrency() int
	GetServiceLocation() *time.Location
	GetAcceptRecheckSchedule() bool
}

// NotificationConfig provides settings for SMS and email delivery.
type NotificationConfig interface {
	GetSMSWebhookURL() string
	GetSMSWebhookToken() string
	GetSMSDefaultRegion() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromAddress() string
	GetEmailFromName() string
	IsSMSEnabled() bool
	IsSMTPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	RateLimitRPS                float64
	RateLimitBurst              int
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	WorkerMetricsAddr           string
	AssignmentInitialDelay      time.Duration
	AssignmentNoCandidateDelay  time.Duration
	AssignmentMaxAttempts       int
	AssignmentBackoffBase       time.Duration
	AssignmentFilterConcurrency int
	ServiceLocation             *time.Location
	AcceptRecheckSchedule       bool
	SMSWebhookURL               string
	SMSWebhookToken             string
	SMSDefaultRegion            string
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromAddress            string
	EmailFromName               string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetWorkerMetricsAddr() string { return c.WorkerMetricsAddr }

// AssignmentConfig implementation
func (c *Config) GetAssignmentInitialDelay() time.Duration     { return c.AssignmentInitialDelay }
func (c *Config) GetAssignmentNoCandidateDelay() time.Duration { return c.AssignmentNoCandidateDelay }
func (c *Config) GetAssignmentMaxAttempts() int                { return c.AssignmentMaxAttempts }
func (c *Config) GetAssignmentBackoffBase() time.Duration      { return c.AssignmentBackoffBase }
func (c *Config) GetAssignmentFilterConcurrency() int          { return c.AssignmentFilterConcurrency }
func (c *Config) GetAcceptRecheckSchedule() bool               { return c.AcceptRecheckSchedule }
func (c *Config) GetServiceLocation() *time.Location {
	if c.ServiceLocation == nil {
		return time.UTC
	}
	return c.ServiceLocation
}

// NotificationConfig implementation
func (c *Config) GetSMSWebhookURL() string    { return c.SMSWebhookURL }
func (c *Config) GetSMSWebhookToken() string  { return c.SMSWebhookToken }
func (c *Config) GetSMSDefaultRegion() string { return c.SMSDefaultRegion }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) IsSMSEnabled() bool          { return c.SMSWebhookURL != "" }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.AssignmentMaxAttempts < 1 {
		return nil, fmt.Errorf("ASSIGNMENT_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

// LoadOps reads the same environment for operator tooling, which never
// serves HTTP and so does not need JWT or CORS settings.
func LoadOps() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func read() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3002"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	location, err := time.LoadLocation(getEnv("SERVICE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("SERVICE_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":3001"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:                mustFloat(getEnv("RATE_LIMIT_RPS", "2")),
		RateLimitBurst:              mustInt(getEnv("RATE_LIMIT_BURST", "100")),
		RedisURL:                    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "assignments"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		WorkerMetricsAddr:           getEnv("WORKER_METRICS_ADDR", ":9091"),
		AssignmentInitialDelay:      mustDuration(getEnv("ASSIGNMENT_INITIAL_DELAY", "5s")),
		AssignmentNoCandidateDelay:  mustDuration(getEnv("ASSIGNMENT_NO_CANDIDATE_DELAY", "30m")),
		AssignmentMaxAttempts:       mustInt(getEnv("ASSIGNMENT_MAX_ATTEMPTS", "3")),
		AssignmentBackoffBase:       mustDuration(getEnv("ASSIGNMENT_BACKOFF_BASE", "2s")),
		AssignmentFilterConcurrency: mustInt(getEnv("ASSIGNMENT_FILTER_CONCURRENCY", "4")),
		ServiceLocation:             location,
		AcceptRecheckSchedule:       strings.EqualFold(getEnv("ACCEPT_RECHECK_SCHEDULE", "false"), "true"),
		SMSWebhookURL:               getEnv("SMS_WEBHOOK_URL", ""),
		SMSWebhookToken:             getEnv("SMS_WEBHOOK_TOKEN", ""),
		SMSDefaultRegion:            getEnv("SMS_DEFAULT_REGION", "US"),
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Field Service Manager"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
