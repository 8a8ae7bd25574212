/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "SHORTLINKS"
	maxShift  = 29
)

// Config represents the shortlinks configuration
type Config struct {
	Bind          string     `yaml:"bind" mapstructure:"bind"`
	Port          int        `yaml:"port" mapstructure:"port"`
	BaseURL       string     `yaml:"base_url" mapstructure:"base_url"`
	Normalization string     `yaml:"normalization" mapstructure:"normalization"`
	Security      Security   `yaml:"security" mapstructure:"security"`
	Logging       Logging    `yaml:"logging" mapstructure:"logging"`
	Store         Store      `yaml:"store" mapstructure:"store"`
	Validation    Validation `yaml:"validation" mapstructure:"validation"`
}

// Security contains security-related configuration
type Security struct {
	// APIKey protects /api/v1 when set. Redirects and /metrics stay open.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Store sizes the in-memory indexes
type Store struct {
	SegmentShift  int    `yaml:"segment_shift" mapstructure:"segment_shift"`
	ReverseShards int    `yaml:"reverse_shards" mapstructure:"reverse_shards"`
	// IDLimit is the largest id handed out. 0 means the full 48-bit space,
	// not a single-id space.
	IDLimit       uint64 `yaml:"id_limit" mapstructure:"id_limit"`
}

// Validation controls which urls are accepted for shortening
type Validation struct {
	MaxLength      int      `yaml:"max_length" mapstructure:"max_length"`
	AllowedSchemes []string `yaml:"allowed_schemes" mapstructure:"allowed_schemes"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Bind:          "127.0.0.1",
		Port:          8080,
		Normalization: "identity",
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Store: Store{
			SegmentShift:  20,
			ReverseShards: 256,
		},
		Validation: Validation{
			MaxLength:      2048,
			AllowedSchemes: []string{"http", "https"},
		},
	}
}

func applyDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("bind", d.Bind)
	v.SetDefault("port", d.Port)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("normalization", d.Normalization)
	v.SetDefault("security.api_key", d.Security.APIKey)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("store.segment_shift", d.Store.SegmentShift)
	v.SetDefault("store.reverse_shards", d.Store.ReverseShards)
	v.SetDefault("store.id_limit", d.Store.IDLimit)
	v.SetDefault("validation.max_length", d.Validation.MaxLength)
	v.SetDefault("validation.allowed_schemes", d.Validation.AllowedSchemes)
}

// LoadConfig loads configuration from configPath, SHORTLINKS_* environment
// variables and defaults, in that order of precedence from lowest to highest
// being defaults, file, environment. An empty configPath skips the file.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}

		if !filepath.IsAbs(configPath) {
			absPath, err := filepath.Abs(configPath)
			if err != nil {
				return nil, fmt.Errorf("invalid config path: %w", err)
			}
			configPath = absPath
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration can be used to start the service
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Store.SegmentShift < 0 || c.Store.SegmentShift > maxShift {
		errs = append(errs, fmt.Errorf("store.segment_shift must be between 0 (default) and %d", maxShift))
	}
	if c.Store.ReverseShards < 0 {
		errs = append(errs, errors.New("store.reverse_shards must not be negative"))
	}
	if c.Store.IDLimit > 1<<48-1 {
		errs = append(errs, errors.New("store.id_limit exceeds the 48-bit id space"))
	}
	if c.Validation.MaxLength < 0 {
		errs = append(errs, errors.New("validation.max_length must not be negative"))
	}
	switch strings.ToLower(c.Normalization) {
	case "", "identity", "none", "canonical":
	default:
		errs = append(errs, fmt.Errorf("unknown normalization %q", c.Normalization))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 since the file can carry the api key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a freshly generated
// API key to configPath
func BootstrapConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./shortlinks.yaml"
	}
	return filepath.Join(homeDir, ".config", "shortlinks", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
