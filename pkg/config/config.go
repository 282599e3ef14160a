package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// DatabaseURL takes precedence over the individual DB_* settings.
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	ReferencePrefix       string
	OrgName               string
	DefaultThresholdHours int
	MaxUploadBytes        int64

	SweepInterval     time.Duration
	AlertWindow       time.Duration
	AlertPollInterval time.Duration

	FirebaseCredentials string
	FCMTopic            string
	GoogleProjectID     string
	GoogleCredentials   string
	GooglePubSubTopic   string

	RedisURL string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnvInt("DB_PORT", 5432),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "mailtrack"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		ReferencePrefix:       getEnv("REFERENCE_PREFIX", "EKSU"),
		OrgName:               getEnv("ORG_NAME", "EKSU"),
		DefaultThresholdHours: getEnvInt("DEFAULT_THRESHOLD_HOURS", 48),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Hour),
		AlertWindow:       getEnvDuration("ALERT_WINDOW", 10*time.Second),
		AlertPollInterval: getEnvDuration("ALERT_POLL_INTERVAL", 10*time.Second),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FCMTopic:            getEnv("FCM_TOPIC", "overdue-mail"),
		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", ""),

		RedisURL: getEnv("REDIS_URL", ""),
	}
}

// DatabaseDSN returns the connection string handed to the GORM postgres driver.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// MigrationURL returns the database URL in the pgx5:// form golang-migrate expects.
func (c *Config) MigrationURL() (string, error) {
	if c.DatabaseURL == "" {
		u := &url.URL{
			Scheme:   "pgx5",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=" + c.DBSSLMode,
		}
		return u.String(), nil
	}

	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql", "pgx", "pgx5":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func getEnv(key, defaultValue string) string {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
