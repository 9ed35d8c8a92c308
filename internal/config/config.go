// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs the HS256 bearer tokens accepted on admin routes. Required.
	JWTSecret string

	// StripeWebhookSecret verifies Stripe-Signature headers. Required.
	StripeWebhookSecret string

	// StripeSecretKey opens payment intents for guest deposits. Empty
	// disables online payment; bookings are then created unpaid.
	StripeSecretKey string

	// BaseDomain is the apex under which campgrounds get subdomains,
	// e.g. "pines.example.com" for BaseDomain "example.com".
	BaseDomain string

	// Location is the campground wall-clock zone used for "today".
	// TIMEZONE takes an IANA name; defaults to the host zone.
	Location *time.Location

	// Redis backs the rate limiter. An empty RedisAddr selects the
	// in-process limiter.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AMQPURL is the broker for audit events. Empty logs audit events instead.
	AMQPURL    string
	AuditQueue string

	// Per-IP limits for public routes.
	SearchLimit   int
	SearchWindow  time.Duration
	BookingLimit  int
	BookingWindow time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MigrateOnStart runs the embedded migrations before serving.
	MigrateOnStart bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, and any
// that are set but cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		BaseDomain:      getEnv("BASE_DOMAIN", "localhost"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		AuditQueue:      getEnv("AUDIT_QUEUE", "audit.events"),
	}

	var missing, invalid []string

	for _, req := range []struct {
		key  string
		dest *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"JWT_SECRET", &cfg.JWTSecret},
		{"STRIPE_WEBHOOK_SECRET", &cfg.StripeWebhookSecret},
	} {
		*req.dest = os.Getenv(req.key)
		if *req.dest == "" {
			missing = append(missing, req.key)
		}
	}

	p := parser{invalid: &invalid}
	cfg.RedisDB = p.intVar("REDIS_DB", 0)
	cfg.SearchLimit = p.intVar("RATE_LIMIT_SEARCH", 60)
	cfg.SearchWindow = p.durationVar("RATE_LIMIT_SEARCH_WINDOW", time.Minute)
	cfg.BookingLimit = p.intVar("RATE_LIMIT_BOOKING", 5)
	cfg.BookingWindow = p.durationVar("RATE_LIMIT_BOOKING_WINDOW", time.Minute)
	cfg.MaxBodyBytes = int64(p.intVar("MAX_BODY_BYTES", 1<<20))
	cfg.MigrateOnStart = p.boolVar("MIGRATE_ON_START", false)

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parser reads typed variables, recording the names of unparsable ones.
type parser struct {
	invalid *[]string
}

func (p parser) intVar(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return n
}

func (p parser) durationVar(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return d
}

func (p parser) boolVar(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return b
}
