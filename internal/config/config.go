// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value read from the YAML file can additionally be overridden by
// the environment variable named in its env:"..." tag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers understood by main.
const (
	DriverJSON   = "json"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing — better to crash at boot than to silently use a wrong default.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StorageDriver selects the backend: "json" (default), "memory" or
	// "sqlite".
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"json"`

	// StoragePath is the JSON file or SQLite database on disk. Ignored by
	// the memory driver.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`

	// FailOnCorrupt makes the JSON driver report an unreadable storage
	// file as an error instead of starting over from an empty collection.
	FailOnCorrupt bool `yaml:"fail_on_corrupt" env:"STORAGE_FAIL_ON_CORRUPT" env-default:"false"`

	HTTPServer `yaml:"http_server"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Load reads the YAML file at path, applies environment overrides and
// checks the values that cleanenv cannot check on its own.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// cleanenv.ReadConfig reads the YAML file and populates the struct.
	// It also reads any env:"..." tagged fields from the environment,
	// applies env-default values and enforces env-required.
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverJSON, DriverSQLite:
		if c.StoragePath == "" {
			return fmt.Errorf("storage_path is required for the %q driver", c.StorageDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage_driver %q: want %q, %q or %q",
			c.StorageDriver, DriverJSON, DriverMemory, DriverSQLite)
	}
	return nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to panic/fatal on failure. Callers do not need to
// check a returned error — if this function returns, the config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/users-api --config=config/local.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
