package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	AppEnv string
	Port   string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSchemaPath string
	DBMaxConns   int

	CORSAllowedOrigins []string
	JWTSecret          string
	LogLevel           string
	LogPretty          bool

	// RecomputeMaxAttempts bounds the optimistic retries of an order recomputation.
	RecomputeMaxAttempts int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads .env.<APP_ENV> (falling back to .env) and then the process
// environment. Variables already set in the environment win over the files.
func Load() (*Config, error) {
	env := utils.Getenv("APP_ENV", "development")

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := &Config{
		AppEnv: env,
		Port:   utils.Getenv("PORT", "8080"),

		DBHost:       utils.Getenv("DB_HOST", "localhost"),
		DBPort:       utils.Getenv("DB_PORT", "5432"),
		DBUser:       utils.Getenv("DB_USER", "pos_user"),
		DBPassword:   utils.Getenv("DB_PASSWORD", "pos_password"),
		DBName:       utils.Getenv("DB_NAME", "restaurant_pos_db"),
		DBSSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		DBSchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		DBMaxConns:   utils.GetenvInt("DB_MAX_CONNS", 20),

		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:          utils.GetenvBool("LOG_PRETTY", env == "development"),

		RecomputeMaxAttempts: utils.GetenvInt("RECOMPUTE_MAX_ATTEMPTS", 3),

		ReadTimeout:     utils.GetenvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    utils.GetenvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: utils.GetenvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration values are set.
func (c *Config) Validate() error {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.DBHost == "" || c.DBName == "" {
		problems = append(problems, "DB_HOST and DB_NAME are required")
	}
	if c.RecomputeMaxAttempts < 1 {
		problems = append(problems, "RECOMPUTE_MAX_ATTEMPTS must be at least 1")
	}
	if c.DBMaxConns < 1 {
		problems = append(problems, "DB_MAX_CONNS must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
