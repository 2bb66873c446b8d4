package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultModel               = "gemini-2.5-flash"
	defaultPort                = 3000
	defaultUploadDir           = "uploads"
	defaultMaxUploadBytes      = 20 << 20
	defaultGenerationTimeout   = 5 * time.Minute
	defaultUploadMaxAge        = time.Hour
	defaultUploadSweepSchedule = "0 */10 * * * *"
)

// DBConfig holds the optional request ledger database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config holds all configuration for the relay
type Config struct {
	GeminiAPIKey        string
	GeminiModel         string
	Port                int
	UploadDir           string
	MaxUploadBytes      int64
	GenerationTimeout   time.Duration
	UploadMaxAge        time.Duration
	UploadSweepSchedule string
	LogLevel            string
	LogFile             string
	DB                  DBConfig
}

// Load loads the configuration from the environment, reading .env first when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment
func FromEnv() (*Config, error) {
	config := &Config{
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         envString("GEMINI_MODEL", defaultModel),
		Port:                envInt("PORT", defaultPort),
		UploadDir:           envString("UPLOAD_DIR", defaultUploadDir),
		MaxUploadBytes:      int64(envInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		GenerationTimeout:   envSeconds("GENERATION_TIMEOUT", defaultGenerationTimeout),
		UploadMaxAge:        envSeconds("UPLOAD_MAX_AGE", defaultUploadMaxAge),
		UploadSweepSchedule: envString("UPLOAD_SWEEP_SCHEDULE", defaultUploadSweepSchedule),
		LogLevel:            envString("LOG_LEVEL", "info"),
		LogFile:             strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	config.DB = DBConfig{
		Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
		Port:            envInt("DB_PORT", 5432),
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         envString("DB_SSL_MODE", "disable"),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: envSeconds("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	// A sweep must never catch an upload whose request is still waiting on the model.
	if c.UploadMaxAge <= c.GenerationTimeout {
		return fmt.Errorf("UPLOAD_MAX_AGE (%s) must exceed GENERATION_TIMEOUT (%s)", c.UploadMaxAge, c.GenerationTimeout)
	}

	if !c.LedgerEnabled() {
		return nil
	}
	if c.DB.User == "" {
		return fmt.Errorf("DB_USER is required when DB_HOST is set")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_HOST is set")
	}
	if c.DB.Database == "" {
		return fmt.Errorf("DB_NAME is required when DB_HOST is set")
	}
	return nil
}

// LedgerEnabled reports whether generation calls are recorded in Postgres
func (c *Config) LedgerEnabled() bool {
	return c.DB.Host != ""
}

// ListenAddr returns the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset or not a positive integer.
func envInt(name string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name))); err == nil && n > 0 {
		return n
	}
	return def
}

func envSeconds(name string, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name))); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
