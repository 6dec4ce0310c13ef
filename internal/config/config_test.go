package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PODCASTER_DB", "PODCASTER_YAML", "PODCASTER_DIR", "PODCASTER_TEMP",
		"PODCASTER_SCHEDULE", "PODCASTER_ENV", "PODCASTER_LOG_FORMAT",
		"PODCASTER_USER_AGENT", "PODCASTER_INSECURE_TLS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database != "podcatcher.db" {
		t.Errorf("expected default database, got %q", cfg.Database)
	}
	if cfg.Catalog != "podcatcher.yaml" {
		t.Errorf("expected default catalog, got %q", cfg.Catalog)
	}
	if cfg.PodcastDir != "podcasts" {
		t.Errorf("expected default podcast dir, got %q", cfg.PodcastDir)
	}
	if cfg.TempDir != filepath.Join(os.TempDir(), "podcasts") {
		t.Errorf("expected temp dir under os temp, got %q", cfg.TempDir)
	}
	if cfg.Schedule != 0 {
		t.Errorf("expected no schedule, got %s", cfg.Schedule)
	}
	if !cfg.Debug() || cfg.LogLevel() != "debug" {
		t.Error("expected development env to log at debug")
	}
	if !strings.HasPrefix(cfg.UserAgent, "podcatcher/") {
		t.Errorf("expected default user agent, got %q", cfg.UserAgent)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PODCASTER_DB", "/data/seen.db")
	t.Setenv("PODCASTER_YAML", "https://example.com/podcasts.yaml")
	t.Setenv("PODCASTER_SCHEDULE", "30")
	t.Setenv("PODCASTER_ENV", "Production")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database != "/data/seen.db" {
		t.Errorf("expected database from env, got %q", cfg.Database)
	}
	if cfg.Catalog != "https://example.com/podcasts.yaml" {
		t.Errorf("expected catalog from env, got %q", cfg.Catalog)
	}
	if cfg.Schedule != 30*time.Minute {
		t.Errorf("expected 30m schedule, got %s", cfg.Schedule)
	}
	if cfg.Debug() {
		t.Error("expected production env to disable debug")
	}
	if cfg.LockPath() != "/data/seen.db.lock" {
		t.Errorf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PODCASTER_DIR=/srv/podcasts\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PODCASTER_DIR") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.PodcastDir != "/srv/podcasts" {
		t.Errorf("expected podcast dir from env file, got %q", cfg.PodcastDir)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: "a.db", Catalog: "c.yaml", PodcastDir: "p", TempDir: "t"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Schedule = -time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative schedule")
	}

	cfg.Schedule = 0
	cfg.Catalog = " "
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty catalog")
	}
}
