package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// URLTTL is the lifetime of presigned artifact download links.
	URLTTL time.Duration
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// PipelineConfig tunes the registration and issuance pipeline.
type PipelineConfig struct {
	OrgName                 string
	OrgShortName            string
	CredentialValidityYears int
	ReopenPolicy            string
	BatchConcurrency        int
	BatchMaxItems           int
	RenderOversample        int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	TZLocation  string
	LogLevel    string
	StoreDriver string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Auth        AuthConfig
	Pipeline    PipelineConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence. Invalid values fall back to defaults.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		TZLocation:  getEnv("TZ_LOCATION", "UTC"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			URLTTL:    getEnvDuration("ARTIFACT_URL_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", "regportal"),
		},
		Pipeline: PipelineConfig{
			OrgName:                 getEnv("ORG_NAME", "Registration Portal"),
			OrgShortName:            getEnv("ORG_SHORT_NAME", "RP"),
			CredentialValidityYears: getEnvInt("CREDENTIAL_VALIDITY_YEARS", 2),
			ReopenPolicy:            getEnv("REOPEN_POLICY", "any_upload"),
			BatchConcurrency:        getEnvInt("BATCH_CONCURRENCY", 4),
			BatchMaxItems:           getEnvInt("BATCH_MAX_ITEMS", 100),
			RenderOversample:        getEnvInt("RENDER_OVERSAMPLE", 5),
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Pipeline.ReopenPolicy {
	case "any_upload", "all_flagged":
	default:
		return fmt.Errorf("unknown REOPEN_POLICY %q", c.Pipeline.ReopenPolicy)
	}
	if c.Pipeline.BatchConcurrency <= 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.Pipeline.BatchConcurrency)
	}
	if c.Pipeline.BatchMaxItems <= 0 {
		return fmt.Errorf("BATCH_MAX_ITEMS must be positive, got %d", c.Pipeline.BatchMaxItems)
	}
	if c.Pipeline.RenderOversample <= 0 {
		return fmt.Errorf("RENDER_OVERSAMPLE must be positive, got %d", c.Pipeline.RenderOversample)
	}
	if c.Pipeline.CredentialValidityYears <= 0 {
		return fmt.Errorf("CREDENTIAL_VALIDITY_YEARS must be positive, got %d", c.Pipeline.CredentialValidityYears)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if _, err := time.LoadLocation(c.TZLocation); err != nil {
		return fmt.Errorf("invalid TZ_LOCATION %q: %w", c.TZLocation, err)
	}
	return nil
}

// Location returns the configured log time zone, or UTC if it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envAs parses key with parse. Unset or unparsable values yield def.
func envAs[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getEnvBool(key string, def bool) bool { return envAs(key, def, strconv.ParseBool) }

func getEnvInt(key string, def int) int { return envAs(key, def, strconv.Atoi) }

func getEnvDuration(key string, def time.Duration) time.Duration {
	return envAs(key, def, func(v string) (time.Duration, error) {
		d, err := time.ParseDuration(v)
		if err == nil && d <= 0 {
			return 0, fmt.Errorf("non-positive duration %s", v)
		}
		return d, err
	})
}
