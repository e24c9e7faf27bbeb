package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFile  = "file"
	StorageMySQL = "mysql"
)

// Config describes runtime settings loaded from environment variables.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Storage         string        `env:"STORAGE" envDefault:"file"`
	TasksFile       string        `env:"TASKS_FILE" envDefault:"data/tasks.json"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables, applying defaults when necessary.
// Variables from a .env file in the working directory are applied first without
// overriding ones already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:            "8080",
		Storage:         StorageFile,
		TasksFile:       "data/tasks.json",
		LogLevel:        slog.LevelInfo,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		ShutdownTimeout: 5 * time.Second,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if storage := os.Getenv("STORAGE"); storage != "" {
		cfg.Storage = strings.ToLower(storage)
	}

	if tasksFile := os.Getenv("TASKS_FILE"); tasksFile != "" {
		cfg.TasksFile = tasksFile
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return nil, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return nil, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		dur, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = dur
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageFile:
		if strings.TrimSpace(c.TasksFile) == "" {
			return fmt.Errorf("TASKS_FILE cannot be empty")
		}
	case StorageMySQL:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORAGE=%s", StorageMySQL)
		}
	default:
		return fmt.Errorf("invalid STORAGE %q: must be %s or %s", c.Storage, StorageFile, StorageMySQL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %v: must be positive", c.ShutdownTimeout)
	}
	return nil
}
