// Package config loads engine configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the engine.
type Config struct {
	// Roots are the directories watched and polled for document arrivals.
	Roots []string `yaml:"roots"`
	// DatabaseURL is the connection string for the canonical record store.
	DatabaseURL string `yaml:"database_url"`
	// IndexPath is the SQLite search index file.
	IndexPath string `yaml:"index_path"`
	// FailedLogPath is the persisted failed-file log.
	FailedLogPath string `yaml:"failed_log_path"`
	// EncryptionKey is optional key material for encrypted files: 32 hex
	// chars for a literal AES-128 key, or any passphrase to derive one.
	// Empty disables decryption.
	EncryptionKey string `yaml:"encryption_key"`
	// PollInterval is the record-store poll cycle length.
	PollInterval time.Duration `yaml:"poll_interval"`
	// AbandonAfter bounds how long a pending arrival waits for its file.
	AbandonAfter time.Duration `yaml:"abandon_after"`
	// HTTPAddr is the listen address for the HTTP API.
	HTTPAddr string `yaml:"http_addr"`
}

// Load reads a config from path. A missing file yields defaults. Environment
// overrides are applied last so deployments can adjust without editing files.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Validate checks that the config can actually drive the engine.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New("at least one root directory is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		IndexPath:     "data/search-docs.db",
		FailedLogPath: "data/failed_files.json",
		PollInterval:  time.Second,
		AbandonAfter:  15 * time.Second,
		HTTPAddr:      ":8080",
	}
}

func applyDefaults(cfg *Config) {
	def := defaults()
	if cfg.IndexPath == "" {
		cfg.IndexPath = def.IndexPath
	}
	if cfg.FailedLogPath == "" {
		cfg.FailedLogPath = def.FailedLogPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = def.AbandonAfter
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = def.HTTPAddr
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCSTREAM_ROOTS"); v != "" {
		cfg.Roots = splitList(v)
	}
	if v := os.Getenv("DOCSTREAM_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DOCSTREAM_INDEX_PATH"); v != "" {
		cfg.IndexPath = v
	}
	if v := os.Getenv("DOCSTREAM_ENCRYPTION_KEY"); v != "" {
		cfg.EncryptionKey = v
	}
	if v := os.Getenv("DOCSTREAM_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
