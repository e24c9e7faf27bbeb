package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets key for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

// chdir changes the working directory to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

var allKeys = []string{
	"PORT", "STORAGE", "TASKS_FILE", "DATABASE_DSN", "LOG_LEVEL",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SHUTDOWN_TIMEOUT",
}

func TestLoad(t *testing.T) {
	clearEnv(t, allKeys...)
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected shutdown timeout 10s, got %s", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.Storage != StorageFile || cfg.TasksFile != "data/tasks.json" {
		t.Fatalf("unexpected storage defaults: %q %q", cfg.Storage, cfg.TasksFile)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t, allKeys...)
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKS_FILE=/tmp/from-dotenv.json\nPORT=7070\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	// .env never overrides the real environment
	if cfg.Port != "6060" {
		t.Fatalf("expected port 6060, got %q", cfg.Port)
	}
	if cfg.TasksFile != "/tmp/from-dotenv.json" {
		t.Fatalf("expected TASKS_FILE from .env, got %q", cfg.TasksFile)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad storage", map[string]string{"STORAGE": "redis"}},
		{"mysql without dsn", map[string]string{"STORAGE": "mysql"}},
		{"bad rps", map[string]string{"RATE_LIMIT_RPS": "fast"}},
		{"bad burst", map[string]string{"RATE_LIMIT_BURST": "1.5"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t, allKeys...)
			chdir(t, t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %v", tc.env)
			}
		})
	}
}

func TestLoadMySQL(t *testing.T) {
	clearEnv(t, allKeys...)
	chdir(t, t.TempDir())
	t.Setenv("STORAGE", "MySQL")
	t.Setenv("DATABASE_DSN", "user:pass@tcp(127.0.0.1:3306)/tasks")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage != StorageMySQL {
		t.Fatalf("expected mysql storage, got %q", cfg.Storage)
	}
}
