// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
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

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env            string        // APP_ENV (dev, test, prod)
	Port           string        // APP_PORT
	LogLevel       string        // LOG_LEVEL (debug, info, warn, error)
	CORSOrigins    []string      // CORS_ORIGINS, comma separated
	DBUser         string        // DB_USER
	DBPass         string        // DB_PASS (optional)
	DBHost         string        // DB_HOST
	DBPort         string        // DB_PORT
	DBName         string        // DB_NAME
	JWTSecret      string        // JWT_SECRET
	AccessTTL      time.Duration // ACCESS_TOKEN_TTL_MIN
	RefreshTTL     time.Duration // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int           // BCRYPT_COST
	AMQPURL        string        // AMQP_URL or RABBITMQ_URL; empty disables events
	NotifyLogDir   string        // NOTIFY_LOG_DIR
	Redis          RedisConfig
	S3             S3Config
	RateLimit      RateLimitConfig
	Cache          CacheConfig
}

// S3Config configures the report image bucket. An empty Bucket disables
// image uploads.
type S3Config struct {
	Bucket     string
	Region     string
	Key        string
	Secret     string
	Endpoint   string
	PresignTTL time.Duration
}

// Enabled reports whether object storage is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// Load reads a .env file when present and then builds a Config from the
// environment. Every missing required variable is reported in the
// returned error.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is normal outside development
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	var missing []error
	must := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		amqpURL = os.Getenv("RABBITMQ_URL")
	}

	cfg := Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "*")),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTL:    time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		RefreshTTL:   time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:   envInt("BCRYPT_COST", 10),
		AMQPURL:      amqpURL,
		NotifyLogDir: getenv("NOTIFY_LOG_DIR", "logs"),
		Redis:        LoadRedisConfig(),
		S3: S3Config{
			Bucket:     os.Getenv("S3_BUCKET"),
			Region:     getenv("S3_REGION", "us-east-1"),
			Key:        os.Getenv("S3_KEY"),
			Secret:     os.Getenv("S3_SECRET"),
			Endpoint:   os.Getenv("S3_ENDPOINT"),
			PresignTTL: envDur("S3_PRESIGN_TTL", 15*time.Minute),
		},
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
	}
	if cfg.AccessTTL <= 0 {
		missing = append(missing, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if cfg.RefreshTTL <= 0 {
		missing = append(missing, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if err := errors.Join(missing...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProd reports whether the app runs in production mode.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "":
		return d
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
