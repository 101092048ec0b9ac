package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds client registration and cache settings.
type Config struct {
	Auth struct {
		Authority   string `yaml:"authority" json:"authority"`
		ClientID    string `yaml:"client_id" json:"client_id"`
		RedirectURI string `yaml:"redirect_uri" json:"redirect_uri"`
	} `yaml:"auth" json:"auth"`
	Cache struct {
		File       string `yaml:"file" json:"file"`
		LegacyFile string `yaml:"legacy_file" json:"legacy_file"`
	} `yaml:"cache" json:"cache"`
	Logging struct {
		Debug  bool `yaml:"debug" json:"debug"`
		LogPII bool `yaml:"log_pii" json:"log_pii"`
	} `yaml:"logging" json:"logging"`
}

// LoadConfig loads the configuration from a file (either .yaml or .json)
func LoadConfig() (*Config, error) {
	configFilePath, err := FindConfigFile()
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	return LoadConfigFrom(configFilePath)
}

// LoadConfigFrom reads and parses the config file at the given path.
func LoadConfigFrom(path string) (*Config, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Try to unmarshal YAML first
	var cfg Config
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		// If YAML fails, try JSON
		if err := json.Unmarshal(fileData, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.Auth.ClientID == "" {
		return nil, fmt.Errorf("config is missing auth.client_id")
	}
	if cfg.Auth.Authority == "" {
		return nil, fmt.Errorf("config is missing auth.authority")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// FindConfigFile looks for config files (config.yml, config.yaml, or
// config.json) under $HOME/.config/authgate, then in the current directory.
func FindConfigFile() (string, error) {
	names := []string{"config.yml", "config.yaml", "config.json"}

	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "authgate"))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}

	for _, dir := range dirs {
		for _, name := range names {
			possiblePath := filepath.Join(dir, name)
			if _, err := os.Stat(possiblePath); err == nil {
				return possiblePath, nil
			}
		}
	}

	return "", fmt.Errorf("no config file found in %s or the current directory", filepath.Join("~", ".config", "authgate"))
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.RedirectURI == "" {
		cfg.Auth.RedirectURI = "http://localhost:8400/callback"
	}
	if cfg.Cache.File == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.File = filepath.Join(home, ".config", "authgate", "tokens.json")
		}
	}
}
