package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultDueSoonDays         = 15
	defaultMaxPostponementDays = 365
	defaultServerAddr          = ":8080"
	defaultDigestSubject       = "Sensitive task rotation alerts"
)

// DatabaseConfig selects the store backing the application
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `yaml:"url" validate:"required"`
}

// RotationConfig tunes the rotation rules
type RotationConfig struct {
	DueSoonDays         int `yaml:"dueSoonDays,omitempty" validate:"omitempty,min=1,max=365"`
	MaxPostponementDays int `yaml:"maxPostponementDays,omitempty" validate:"omitempty,min=1,max=730"`
}

// DigestConfig defines who receives the alert digest email and when
type DigestConfig struct {
	RRule      string   `yaml:"rrule" validate:"required"`
	Recipients []string `yaml:"recipients" validate:"required,min=1,dive,email"`
	Subject    string   `yaml:"subject,omitempty"`
}

// SheetsConfig locates the spreadsheets that personnel and sensitive workflow steps are imported from
type SheetsConfig struct {
	PersonnelSheetID string `yaml:"personnelSheetID" validate:"required"`
	PersonnelTab     string `yaml:"personnelTab" validate:"required"`
	WorkflowSheetID  string `yaml:"workflowSheetID" validate:"required"`
	WorkflowTab      string `yaml:"workflowTab" validate:"required"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Rotation    RotationConfig `yaml:"rotation,omitempty"`
	Server      ServerConfig   `yaml:"server,omitempty"`
	Digest      *DigestConfig  `yaml:"digest,omitempty" validate:"omitempty"`
	Sheets      *SheetsConfig  `yaml:"sheets,omitempty" validate:"omitempty"`
	GmailSender string         `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

// UsesGoogle reports whether any Google integration is configured
func (c *Config) UsesGoogle() bool {
	return c.Digest != nil || c.Sheets != nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration for an environment.
// env="test" looks for rotation_config.test.yaml; an empty env looks for rotation_config.yaml.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(envFileName("rotation_config", "yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate validates the configuration struct and checks the digest rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Digest != nil {
		if _, err := rrule.StrToRRule(cfg.Digest.RRule); err != nil {
			return fmt.Errorf("invalid rrule in digest: %w", err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Rotation.DueSoonDays == 0 {
		cfg.Rotation.DueSoonDays = defaultDueSoonDays
	}
	if cfg.Rotation.MaxPostponementDays == 0 {
		cfg.Rotation.MaxPostponementDays = defaultMaxPostponementDays
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Digest != nil && cfg.Digest.Subject == "" {
		cfg.Digest.Subject = defaultDigestSubject
	}
}

// envFileName returns base.ext, or base.env.ext when env is set
func envFileName(base, ext, env string) string {
	if env == "" {
		return base + "." + ext
	}
	return base + "." + env + "." + ext
}

// findFile searches for name in the current directory, then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
