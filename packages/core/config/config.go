package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/core/logging"
	"gopkg.in/yaml.v3"
)

// Config represents the apythia configuration
type Config struct {
	LogLevel    string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat   string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	WaitTimeout int    `json:"waitTimeout,omitempty" yaml:"waitTimeout,omitempty"` // milliseconds
	Verbose     *bool  `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor     *bool  `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetWaitTimeout returns how long adapters wait for the next captured request.
// Zero means no limit other than the caller's context.
func (c *Config) GetWaitTimeout() time.Duration {
	if c.WaitTimeout <= 0 {
		return 0
	}
	return time.Duration(c.WaitTimeout) * time.Millisecond
}

// Logger builds the logger described by the config.
func (c *Config) Logger() *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(c.LogLevel),
		Format: logging.ParseFormat(c.LogFormat),
	})
}

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	".apythia.json",
	"apythia.json",
	".apythia.yaml",
	".apythia.yml",
}

// LoadConfig loads configuration from the specified path or searches the current directory
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides values from APYTHIA_* environment variables
func (c *Config) ApplyEnv() *Config {
	result := *c
	if v := os.Getenv("APYTHIA_LOG_LEVEL"); v != "" {
		result.LogLevel = v
	}
	if v := os.Getenv("APYTHIA_LOG_FORMAT"); v != "" {
		result.LogFormat = v
	}
	if v := os.Getenv("APYTHIA_WAIT_TIMEOUT"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			result.WaitTimeout = ms
		}
	}
	return &result
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}
	if other.WaitTimeout > 0 {
		result.WaitTimeout = other.WaitTimeout
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML when the extension asks for it
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
