package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFetchURL is the direct CSV export endpoint for the ODRE daily
// consumption dataset, used when no fetch URL is configured.
const DefaultFetchURL = "https://odre.opendatasoft.com/api/explore/v2.1/catalog/datasets/consommation-quotidienne-brute/exports/csv"

// Config holds the application configuration
type Config struct {
	DataDir         string     `yaml:"data_dir,omitempty"`         // Directory for the database and downloaded files (fallback: "data")
	DatabasePath    string     `yaml:"database_path,omitempty"`    // SQLite database path (fallback: <data_dir>/consoscan.db)
	FetchURL        string     `yaml:"fetch_url,omitempty"`        // CSV download URL (fallback: ODRE export endpoint)
	DefaultCategory string     `yaml:"default_category,omitempty"` // Category analyzed when none is given (fallback: electricity)
	LogLevel        string     `yaml:"log_level,omitempty"`        // error, warn, info or debug (fallback: warn)
	MQTT            MQTTConfig `yaml:"mqtt,omitempty"`
	HomeAssistant   HAConfig   `yaml:"home_assistant,omitempty"`
}

// MQTTConfig holds MQTT broker connection settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port, e.g. "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://yourdomain.local:5050"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.home_energy_consumption"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDataDir returns the data directory with a default of "data"
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return "data"
	}
	return c.DataDir
}

// GetDatabasePath returns the database path, falling back to the data directory
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.GetDataDir(), "consoscan.db")
}

// GetFetchURL returns the configured download URL, or the ODRE export endpoint
func (c *Config) GetFetchURL() string {
	if c.FetchURL == "" {
		return DefaultFetchURL
	}
	return c.FetchURL
}

// GetDefaultCategory returns the category analyzed when none is given
func (c *Config) GetDefaultCategory() string {
	if c.DefaultCategory == "" {
		return "electricity"
	}
	return c.DefaultCategory
}

// GetLogLevel returns the configured log level name, or "warn" if not set
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "warn"
	}
	return c.LogLevel
}
