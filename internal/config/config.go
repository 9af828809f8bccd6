// internal/config/config.go
//
// Server configuration.
// Sources, lowest precedence first:
//   1. Defaults below.
//   2. Optional YAML file named by BOWLING_CONFIG_FILE.
//   3. Environment variables (a .env file is loaded by main beforehand).
//
// Environment variables:
//   PORT, CLIENT_ORIGIN, LOG_LEVEL, LOG_PRETTY, REQUEST_TIMEOUT,
//   STORE_DRIVER (memory|sqlite), DATABASE_PATH, BOWLING_LANES,
//   JWT_SECRET, JWT_TTL, COOKIE_NAME, AUTH_REQUIRED,
//   OTEL_ENABLED, OTEL_ENDPOINT.

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileEnv names the variable holding the optional YAML config path.
const FileEnv = "BOWLING_CONFIG_FILE"

// Config is the full server configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	Store     Store     `yaml:"store"`
	Lanes     int       `yaml:"lanes" env:"BOWLING_LANES"`
	Auth      Auth      `yaml:"auth"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Server struct {
	Port           string        `yaml:"port" env:"PORT"`
	ClientOrigin   string        `yaml:"clientOrigin" env:"CLIENT_ORIGIN"`
	RequestTimeout time.Duration `yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
}

type Store struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER"`
	Path   string `yaml:"path" env:"DATABASE_PATH"`
}

type Auth struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET"`
	TTL        time.Duration `yaml:"ttl" env:"JWT_TTL"`
	CookieName string        `yaml:"cookieName" env:"COOKIE_NAME"`
	Required   bool          `yaml:"required" env:"AUTH_REQUIRED"`
}

type Telemetry struct {
	Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED"`
	Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Port:           "5175",
			ClientOrigin:   "http://localhost:5173",
			RequestTimeout: 10 * time.Second,
		},
		Log:   Log{Level: "info"},
		Store: Store{Driver: "memory", Path: "./data/bowling.db"},
		Lanes: 0,
		Auth: Auth{
			Secret:     "dev_secret_change_me",
			TTL:        14 * 24 * time.Hour,
			CookieName: "bowling_token",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("config: sqlite store needs a path")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Lanes < 0 {
		return fmt.Errorf("config: lanes must be >= 0, got %d", c.Lanes)
	}
	if c.Auth.Secret == "" {
		return errors.New("config: auth secret is empty")
	}
	if c.Auth.TTL <= 0 {
		return errors.New("config: auth ttl must be positive")
	}
	return nil
}
