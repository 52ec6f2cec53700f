package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gear6io/airbus/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by Load
const FileName = "airbus.yml"

// HomeEnv overrides the directory searched for FileName
const HomeEnv = "AIRBUS_HOME"

const (
	DefaultMaxAttempts   = 5
	DefaultRetryInterval = 60 * time.Second
)

// Config represents the airbus configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Yuque    YuqueConfig    `yaml:"yuque"`
	Log      LogConfig      `yaml:"log"`
	// Context holds default placeholder values for SQL scripts
	Context map[string]interface{} `yaml:"context,omitempty"`
}

// DatabaseConfig holds the query engine connection settings
type DatabaseConfig struct {
	Driver        string      `yaml:"driver"`
	Host          Hosts       `yaml:"host"`
	Port          int         `yaml:"port"`
	User          string      `yaml:"user"`
	Password      string      `yaml:"password"`
	AuthMechanism string      `yaml:"auth_mechanism"`
	Database      string      `yaml:"database"`
	Retry         RetryConfig `yaml:"retry"`
}

// RetryConfig bounds connection establishment
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// StorageConfig holds S3-compatible object storage settings for s3:// scripts
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// YuqueConfig holds document-hosting API settings
type YuqueConfig struct {
	Token   string        `yaml:"token"`
	UID     string        `yaml:"uid"`
	APIURL  string        `yaml:"api_url"`
	SiteURL string        `yaml:"site_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"file_path"`
	Cleanup    bool   `yaml:"cleanup"`
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `yaml:"max_age"`     // days
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:        "impala",
			Port:          21050,
			AuthMechanism: "NOSASL",
			Retry: RetryConfig{
				MaxAttempts: DefaultMaxAttempts,
				Interval:    DefaultRetryInterval,
			},
		},
		Yuque: YuqueConfig{
			APIURL:  "https://www.yuque.com/api/v2",
			SiteURL: "https://www.yuque.com",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load loads configuration from path, or from the first file found in the search path.
// Without any file the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", path)
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to create config directory", err).AddContext("path", path)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", path)
	}

	return nil
}

// findConfigFile searches for configuration file
func findConfigFile() string {
	// Check current directory
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	if home := os.Getenv(HomeEnv); home != "" {
		configPath := filepath.Join(home, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".airbus", FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	if _, err := os.Stat(filepath.Join("/etc/airbus", FileName)); err == nil {
		return filepath.Join("/etc/airbus", FileName)
	}

	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.New(ErrConfigValidationFailed, "invalid log level", err).AddContext("level", c.Log.Level)
	}

	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return errors.New(ErrConfigValidationFailed, "log rotation limits cannot be negative", nil)
	}

	return nil
}

// Validate checks the connection settings that do not depend on the engine
func (d *DatabaseConfig) Validate() error {
	if strings.TrimSpace(d.Driver) == "" {
		return errors.New(ErrConfigValidationFailed, "database driver cannot be empty", nil)
	}

	if d.Port < 0 || d.Port > 65535 {
		return errors.Newf(ErrConfigValidationFailed, "invalid database port: %d", d.Port)
	}

	for i, h := range d.Host {
		if strings.TrimSpace(h) == "" {
			return errors.Newf(ErrConfigValidationFailed, "database host %d is empty", i)
		}
	}

	if d.Retry.MaxAttempts < 1 {
		return errors.Newf(ErrConfigValidationFailed, "retry max_attempts must be at least 1, got %d", d.Retry.MaxAttempts)
	}

	if d.Retry.Interval < 0 {
		return errors.New(ErrConfigValidationFailed, "retry interval cannot be negative", nil)
	}

	return nil
}
