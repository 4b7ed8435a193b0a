package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models tourdeck.yml.
type Config struct {
	Season struct {
		ID    string `yaml:"id"`
		Year  int    `yaml:"year"`
		Weeks int    `yaml:"weeks"`
	} `yaml:"season"`
	Dispatch struct {
		CooldownSeconds         int `yaml:"cooldown_seconds"`
		ScheduledTimeoutSeconds int `yaml:"scheduled_timeout_seconds"`
		DefaultWeek             int `yaml:"default_week"`
	} `yaml:"dispatch"`
	Optimizer struct {
		URL string `yaml:"url"`
	} `yaml:"optimizer"`
	Notify struct {
		StaffURL       string `yaml:"staff_url"`
		OpsURL         string `yaml:"ops_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"notify"`
	Scheduler struct {
		Secret string `yaml:"secret"`
	} `yaml:"scheduler"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig describes one event subscriber endpoint.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with td season config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Season.ID == "" {
		return fmt.Errorf("config.season.id is required")
	}
	if c.Season.Year < 2000 || c.Season.Year > 2100 {
		return fmt.Errorf("config.season.year %d out of range", c.Season.Year)
	}
	if c.Season.Weeks < 1 || c.Season.Weeks > 18 {
		return fmt.Errorf("config.season.weeks must be 1..18")
	}
	if c.Dispatch.CooldownSeconds < 0 {
		return fmt.Errorf("config.dispatch.cooldown_seconds must not be negative")
	}
	if c.Dispatch.ScheduledTimeoutSeconds <= 0 {
		return fmt.Errorf("config.dispatch.scheduled_timeout_seconds must be positive")
	}
	if c.Dispatch.DefaultWeek < 1 || c.Dispatch.DefaultWeek > c.Season.Weeks {
		return fmt.Errorf("config.dispatch.default_week must be 1..%d", c.Season.Weeks)
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "tourdeck.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(seasonID string, year int) string {
	return fmt.Sprintf(defaultTemplate, seasonID, year)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a season.
func Default(seasonID string, year int) *Config {
	var cfg Config
	cfg.Season.ID = seasonID
	cfg.Season.Year = year
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(seasonID, year))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `season:
  id: %s
  year: %d
  weeks: 18

dispatch:
  cooldown_seconds: 60
  scheduled_timeout_seconds: 120
  default_week: 1

optimizer:
  url: ""

notify:
  staff_url: ""
  ops_url: ""
  timeout_seconds: 5

scheduler:
  secret: ""

webhooks: []
`
