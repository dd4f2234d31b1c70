package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ComplaintsURL  string `toml:"complaints_url"`
	RecallsURL     string `toml:"recalls_url"`
	VinDecoderURL  string `toml:"vin_decoder_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SearchLimit    int    `toml:"search_limit"`
	TopComponents  int    `toml:"top_components"`
}

func DefaultConfig() *Config {
	return &Config{
		ComplaintsURL:  "https://api.nhtsa.gov/complaints/complaintsByVehicle",
		RecallsURL:     "https://api.nhtsa.gov/recalls/recallsByVehicle",
		VinDecoderURL:  "https://vpic.nhtsa.dot.gov/api/vehicles/DecodeVinValues",
		TimeoutSeconds: 30,
		SearchLimit:    50,
		TopComponents:  10,
	}
}

func DefectscopeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".defectscope"), nil
}

func ConfigPath() (string, error) {
	dir, err := DefectscopeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath is the local cache of NHTSA data. A schema change means
// deleting this file and re-ingesting; there is no in-place migration
// of existing tables.
func DatabasePath() (string, error) {
	dir, err := DefectscopeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db", "defectscope.sqlite"), nil
}

func ErrorLogPath() (string, error) {
	dir, err := DefectscopeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "errors.log"), nil
}

func EnsureDirectories() error {
	dir, err := DefectscopeDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	return nil
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}

	// Guard against hand-edited zero values.
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultConfig().TimeoutSeconds
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}
	if cfg.TopComponents <= 0 {
		cfg.TopComponents = DefaultConfig().TopComponents
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}
