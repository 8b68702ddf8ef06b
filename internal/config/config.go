// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
	RedisURL        string        `env:"REDIS_URL"`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Argon2          Argon2        `envPrefix:"ARGON2_"`
}

// Argon2 contains the cost parameters for new password digests.
type Argon2 struct {
	Time      uint32 `env:"TIME" envDefault:"3"`
	MemoryKiB uint32 `env:"MEMORY_KIB" envDefault:"65536"`
	Threads   uint8  `env:"THREADS" envDefault:"2"`
}

// Store backends selected by the DATABASE_URL scheme.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Load reads the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if _, err := cfg.Backend(); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// Backend reports which store DatabaseURL points at.
func (c *Config) Backend() (string, error) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(c.DatabaseURL, "mongodb://"), strings.HasPrefix(c.DatabaseURL, "mongodb+srv://"):
		return BackendMongo, nil
	default:
		return "", errors.New("DATABASE_URL must start with postgres:// or mongodb://")
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
