/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/bitwire/pkg/codec"
)

// Config represents the bitwire configuration
type Config struct {
	DataDir string  `yaml:"data_dir" toml:"data_dir"`
	Codec   Codec   `yaml:"codec" toml:"codec"`
	Capture Capture `yaml:"capture" toml:"capture"`
	Server  Server  `yaml:"server" toml:"server"`
	Logging Logging `yaml:"logging" toml:"logging"`
}

// Codec selects decoding policies
type Codec struct {
	// RequireCommandTerminator rejects command names that fill all 12 bytes.
	RequireCommandTerminator bool `yaml:"require_command_terminator" toml:"require_command_terminator"`
	// TextMode is "strict" to reject bytes above 0x7f in command names and
	// alert strings, or "mask" to clear their high bit.
	TextMode string `yaml:"text_mode" toml:"text_mode"`
	// MaxPayloadSize bounds payloads accepted by the CLI, API and capture log.
	MaxPayloadSize int `yaml:"max_payload_size" toml:"max_payload_size"`
}

// Capture configures the capture log writer
type Capture struct {
	FsyncInterval time.Duration `yaml:"fsync_interval" toml:"fsync_interval"`
	BufferSize    int           `yaml:"buffer_size" toml:"buffer_size"`
}

// Server contains HTTP inspection service settings
type Server struct {
	Bind   string `yaml:"bind" toml:"bind"`
	Port   int    `yaml:"port" toml:"port"`
	APIKey string `yaml:"api_key" toml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Codec: Codec{
			RequireCommandTerminator: false,
			TextMode:                 "strict",
			MaxPayloadSize:           32 * 1024 * 1024,
		},
		Capture: Capture{
			FsyncInterval: time.Second,
			BufferSize:    64 * 1024,
		},
		Server: Server{
			Bind:   "127.0.0.1",
			Port:   9333,
			APIKey: "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Codec.MaxPayloadSize <= 0 {
		return fmt.Errorf("codec.max_payload_size must be positive, got %d", c.Codec.MaxPayloadSize)
	}
	if _, err := codec.ParseTextMode(c.Codec.TextMode); err != nil {
		return fmt.Errorf("codec.text_mode: %w", err)
	}
	if c.Capture.FsyncInterval < 0 {
		return fmt.Errorf("capture.fsync_interval must not be negative")
	}
	if c.Capture.BufferSize < 0 {
		return fmt.Errorf("capture.buffer_size must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Files ending in
// .toml are parsed as TOML, everything else as YAML. Unset keys keep their
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

// SaveConfig saves the configuration as YAML with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
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

// BootstrapConfig writes a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./bitwire.yaml"
	}

	// For Linux/macOS, use ~/.config/bitwire/config.yaml
	configDir := filepath.Join(homeDir, ".config", "bitwire")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
