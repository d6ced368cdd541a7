package config

import (
	"fmt"
	"os"
	"time"

	"promptregistry/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all configuration for the prompt registry. Values come from an
// optional YAML file (CONFIG_FILE), overridden by environment variables, which
// may themselves come from a .env file.
type Config struct {
	Port              string `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	APIPrefix         string `yaml:"api_prefix" env:"API_PREFIX" env-default:"/api"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	StorageDriver     string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	MigrateOnStart    bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START" env-default:"true"`
	CORSAllowedOrigin string `yaml:"cors_allowed_origin" env:"CORS_ALLOWED_ORIGIN" env-default:"*"`

	// JWTSecret enables bearer-token auth on mutating routes. Secret, env only.
	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig keeps the lowercase variable names used by existing deployments.
type DatabaseConfig struct {
	User           string        `yaml:"user" env:"user"`
	Password       string        `yaml:"-" env:"password"`
	Host           string        `yaml:"host" env:"host" env-default:"localhost"`
	Port           string        `yaml:"port" env:"port" env-default:"5432"`
	Name           string        `yaml:"dbname" env:"dbname" env-default:"prompts"`
	SSLMode        string        `yaml:"sslmode" env:"sslmode" env-default:"require"`
	MaxOpenConns   int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	ConnectRetries int           `yaml:"connect_retries" env:"DB_CONNECT_RETRIES" env-default:"5"`
	RetryDelay     time.Duration `yaml:"retry_delay" env:"DB_RETRY_DELAY" env-default:"2s"`
}

// Load reads .env (if present), then the optional CONFIG_FILE, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (want %q or %q)", c.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if c.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("database connect retries must be at least 1, got %d", c.Database.ConnectRetries)
	}
	return nil
}

// ConnectionString returns the postgres:// URL for lib/pq.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
