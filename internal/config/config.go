package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Graph holds the remote API settings shared by the client and loaders.
type Graph struct {
	StableBase        string   `yaml:"stable_base"`
	PreviewBase       string   `yaml:"preview_base"`
	RequestsPerSecond float64  `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int      `yaml:"burst"`
	PageLimit         int      `yaml:"page_limit"` // max pages per listing, 0 = unlimited
	Scopes            []string `yaml:"scopes"`
}

// DefaultScopes are the read-only device-management scopes the loaders need.
var DefaultScopes = []string{
	"DeviceManagementConfiguration.Read.All",
	"DeviceManagementApps.Read.All",
	"DeviceManagementServiceConfig.Read.All",
	"DeviceManagementManagedDevices.Read.All",
	"DeviceManagementScripts.Read.All",
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
	Operator string `yaml:"operator"`
	Graph    Graph  `yaml:"graph"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// BindFlags registers the shared flags on fs. Values are applied by Load.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	fs.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	fs.StringVar(&c.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Operator, "operator", "", "Operator label recorded as exportedBy")
}

// Load overlays config file values on top of flags and applies defaults.
// Flags explicitly set take precedence over config file values.
func (c *Config) Load() error {
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			return err
		}
	}
	c.applyDefaults()
	return c.validate()
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Listen == "" {
		c.Listen = file.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = file.LogLevel
	}
	if c.Operator == "" {
		c.Operator = file.Operator
	}

	// Graph settings always come from the config file
	c.Graph = file.Graph
	return nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Operator == "" {
		c.Operator = "System"
	}
	if c.Graph.StableBase == "" {
		c.Graph.StableBase = "https://graph.microsoft.com/v1.0"
	}
	if c.Graph.PreviewBase == "" {
		c.Graph.PreviewBase = "https://graph.microsoft.com/beta"
	}
	if c.Graph.Burst <= 0 {
		c.Graph.Burst = 1
	}
	if len(c.Graph.Scopes) == 0 {
		c.Graph.Scopes = append([]string(nil), DefaultScopes...)
	}
}

func (c *Config) validate() error {
	if c.Graph.RequestsPerSecond < 0 {
		return fmt.Errorf("graph.requests_per_second must not be negative, got %v", c.Graph.RequestsPerSecond)
	}
	if c.Graph.PageLimit < 0 {
		return fmt.Errorf("graph.page_limit must not be negative, got %d", c.Graph.PageLimit)
	}
	return nil
}
