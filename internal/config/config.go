package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"microblog/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	MediaBackendLocal = "local"
	MediaBackendR2    = "r2"
)

type Config struct {
	DBDriver      string
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBAutoMigrate bool

	ServerPort      string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	RedisURL       string
	APIKeyCacheTTL time.Duration

	MediaBackend           string
	MediaRoot              string
	MediaURLPrefix         string
	MediaMaxBytes          int64
	MediaAllowedTypes      []string
	MediaMaxImageDimension int

	TweetMaxMedia int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string
}

// LoadConfig reads a .env file when one is present and then builds the
// configuration from the process environment.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, the environment is the source of truth
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", DriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "microblog"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RedisURL: os.Getenv("REDIS_URL"),

		MediaBackend:   getEnv("MEDIA_BACKEND", MediaBackendLocal),
		MediaRoot:      getEnv("MEDIA_ROOT", "./static"),
		MediaURLPrefix: strings.Trim(getEnv("MEDIA_URL_PREFIX", "media"), "/"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2Endpoint:        os.Getenv("R2_ENDPOINT"),
	}

	if cfg.DBAutoMigrate, err = getBool("DB_AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.APIKeyCacheTTL, err = getDuration("API_KEY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MediaMaxBytes, err = getInt64("MEDIA_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}
	maxDim, err := getInt64("MEDIA_MAX_IMAGE_DIMENSION", 0)
	if err != nil {
		return nil, err
	}
	cfg.MediaMaxImageDimension = int(maxDim)
	maxMedia, err := getInt64("TWEET_MAX_MEDIA", 10)
	if err != nil {
		return nil, err
	}
	cfg.TweetMaxMedia = int(maxMedia)

	cfg.MediaAllowedTypes = model.DefaultAllowedMediaTypes
	if raw := os.Getenv("MEDIA_ALLOWED_TYPES"); raw != "" {
		cfg.MediaAllowedTypes = splitList(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations that cannot be caught while parsing.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver == DriverSQLite && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the sqlite3 driver")
	}

	switch c.MediaBackend {
	case MediaBackendLocal:
	case MediaBackendR2:
		if (c.R2AccountID == "" && c.R2Endpoint == "") || c.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME and R2_ACCOUNT_ID or R2_ENDPOINT are required for the r2 media backend")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	if c.MediaMaxBytes < 0 || c.MediaMaxImageDimension < 0 || c.TweetMaxMedia < 0 {
		return fmt.Errorf("media limits must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
