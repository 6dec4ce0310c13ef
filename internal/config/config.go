package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// DownloadTimeout bounds connection setup and response headers for
// enclosure downloads.
const DownloadTimeout = 25 * time.Second

type rawConfig struct {
	Database        string `long:"db" env:"PODCASTER_DB" default:"podcatcher.db" description:"Path to the seen ledger database"`
	Catalog         string `long:"catalog" env:"PODCASTER_YAML" default:"podcatcher.yaml" description:"Feed catalog path or http(s) URL"`
	PodcastDir      string `long:"podcast-dir" env:"PODCASTER_DIR" default:"podcasts" description:"Root directory for downloaded episodes"`
	TempDir         string `long:"temp-dir" env:"PODCASTER_TEMP" description:"Directory for in-flight downloads and cached catalogs"`
	ScheduleMinutes int    `long:"schedule" env:"PODCASTER_SCHEDULE" default:"0" description:"Re-run every N minutes (0 runs once)"`
	Env             string `long:"env" env:"PODCASTER_ENV" default:"development" description:"development or production"`
	LogFormat       string `long:"log-format" env:"PODCASTER_LOG_FORMAT" default:"text" description:"text, json or logfmt"`
	UserAgent       string `long:"user-agent" env:"PODCASTER_USER_AGENT" description:"User agent for HTTP requests"`
	InsecureTLS     bool   `long:"insecure-tls" env:"PODCASTER_INSECURE_TLS" description:"Skip TLS certificate verification"`
}

// Config holds process settings.
type Config struct {
	Database    string
	Catalog     string
	PodcastDir  string
	TempDir     string
	Schedule    time.Duration
	Env         string
	LogFormat   string
	UserAgent   string
	InsecureTLS bool
}

// Load reads settings from the environment. Variables found in envFiles
// (default ".env") fill in anything not already set; a missing file is
// not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var raw rawConfig
	parser := flags.NewParser(&raw, flags.IgnoreUnknown)
	// No arguments: only defaults and environment apply. Flags are owned by cobra.
	if _, err := parser.ParseArgs([]string{}); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg := &Config{
		Database:    raw.Database,
		Catalog:     raw.Catalog,
		PodcastDir:  raw.PodcastDir,
		TempDir:     raw.TempDir,
		Schedule:    time.Duration(raw.ScheduleMinutes) * time.Minute,
		Env:         strings.ToLower(strings.TrimSpace(raw.Env)),
		LogFormat:   raw.LogFormat,
		UserAgent:   raw.UserAgent,
		InsecureTLS: raw.InsecureTLS,
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(os.TempDir(), "podcasts")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "podcatcher/" + Version
	}
	return cfg, nil
}

// Debug reports whether verbose logging is the default for this environment.
func (c *Config) Debug() bool {
	return c.Env != "production"
}

// LogLevel returns the default log level for the environment.
func (c *Config) LogLevel() string {
	if c.Debug() {
		return "debug"
	}
	return "info"
}

// LockPath returns the advisory lock file guarding the ledger.
func (c *Config) LockPath() string {
	return c.Database + ".lock"
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Database) == "":
		return errors.New("database path is empty")
	case strings.TrimSpace(c.Catalog) == "":
		return errors.New("catalog location is empty")
	case strings.TrimSpace(c.PodcastDir) == "":
		return errors.New("podcast directory is empty")
	case strings.TrimSpace(c.TempDir) == "":
		return errors.New("temp directory is empty")
	case c.Schedule < 0:
		return fmt.Errorf("schedule must not be negative, got %s", c.Schedule)
	}
	return nil
}
