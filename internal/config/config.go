package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Backend modes for the upstream task service.
const (
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Slack    SlackConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// BackendConfig selects and configures the upstream task service.
// In http mode tasks are read and written through the ERP's REST API;
// in postgres mode the service talks to the ERP database directly.
type BackendConfig struct {
	Mode    string
	BaseURL string
	Token   string //nolint:gosec // G117: upstream API credential config
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings (postgres mode).
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds viewer token verification settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// SlackConfig holds the optional ops notice channel settings.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// SessionConfig holds table session lifecycle settings.
type SessionConfig struct {
	IdleTTL time.Duration
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password, upstream token) must be
// set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("MESA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("MESA_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("MESA_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("MESA_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("MESA_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backendTimeout, err := getEnvDuration("MESA_BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	idleTTL, err := getEnvDuration("MESA_SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("MESA_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("MESA_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Backend: BackendConfig{
			Mode:    getEnv("MESA_BACKEND_MODE", BackendHTTP),
			BaseURL: getEnv("MESA_BACKEND_BASE_URL", ""),
			Token:   getEnv("MESA_BACKEND_TOKEN", ""),
			Timeout: backendTimeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("MESA_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("MESA_DB_USER", "mesa"),
			Password: getEnv("MESA_DB_PASSWORD", ""),
			DBName:   getEnv("MESA_DB_NAME", "mesa_dev"),
			SSLMode:  getEnv("MESA_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("MESA_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("MESA_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("MESA_JWT_SECRET", ""),
		},
		Slack: SlackConfig{
			BotToken: getEnv("MESA_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("MESA_SLACK_CHANNEL", ""),
		},
		Session: SessionConfig{
			IdleTTL: idleTTL,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("MESA_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("MESA_JWT_SECRET must be at least 32 characters")
	}

	switch c.Backend.Mode {
	case BackendHTTP:
		if c.Backend.BaseURL == "" {
			return errors.New("MESA_BACKEND_BASE_URL is required in http mode")
		}
	case BackendPostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("MESA_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
	default:
		return fmt.Errorf("MESA_BACKEND_MODE must be %q or %q, got %q", BackendHTTP, BackendPostgres, c.Backend.Mode)
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("MESA_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	// Upper bound matches the pgxpool MaxConns field type.
	if c.Database.MaxConns < 1 || c.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("MESA_DB_MAX_CONNS must be 1-%d, got %d", math.MaxInt32, c.Database.MaxConns)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("MESA_BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("MESA_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("MESA_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("MESA_SESSION_IDLE_TTL must be positive, got %s", c.Session.IdleTTL)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
