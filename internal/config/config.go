// Package config reads and writes the tallybook.yaml configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level tallybook.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	// DuplicateWindowDays is the fuzzy date window for duplicate
	// detection.
	DuplicateWindowDays int `yaml:"duplicate_window_days"`
	// TransferLookbackDays widens transfer detection behind each
	// batch's earliest date.
	TransferLookbackDays int `yaml:"transfer_lookback_days"`
}

// Load reads a tallybook.yaml file from disk, then applies any
// TALLYBOOK_* environment overrides (a .env file in the working
// directory is honoured when present).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(dbPath string) *Config {
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Import: ImportConfig{
			DuplicateWindowDays:  3,
			TransferLookbackDays: 7,
		},
	}
}

// applyEnv overlays TALLYBOOK_* variables onto cfg.
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()

	if v := os.Getenv("TALLYBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TALLYBOOK_DUPLICATE_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TALLYBOOK_DUPLICATE_WINDOW_DAYS: %w", err)
		}
		cfg.Import.DuplicateWindowDays = n
	}
	if v := os.Getenv("TALLYBOOK_TRANSFER_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TALLYBOOK_TRANSFER_LOOKBACK_DAYS: %w", err)
		}
		cfg.Import.TransferLookbackDays = n
	}
	return nil
}
