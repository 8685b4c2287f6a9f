// internal/config/config.go
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/nailbook/internal/hours"
)

const (
	defaultRetentionDays = 30
	defaultPurgeCron     = "0 3 * * *"
	defaultTimezone      = "America/Sao_Paulo"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BusinessConfig struct {
	ProviderName  string   `yaml:"provider_name"`
	WhatsAppPhone string   `yaml:"whatsapp_phone"`
	Region        string   `yaml:"region"`
	Services      []string `yaml:"services"`
	RetentionDays int      `yaml:"retention_days"`
	PurgeCron     string   `yaml:"purge_cron"`
}

type NotificationsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Region        string `yaml:"region"`
	Sender        string `yaml:"sender"`
	ProviderEmail string `yaml:"provider_email"`
	// Loaded from environment
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type LimitsConfig struct {
	PhoneCooldownSeconds int `yaml:"phone_cooldown_seconds"`
	PhoneHourlyMax       int `yaml:"phone_hourly_max"`
	IPHourlyMax          int `yaml:"ip_hourly_max"`
}

type AdminConfig struct {
	// Loaded from environment
	PasswordHash string `yaml:"-"`
	HashKey      []byte `yaml:"-"`
	BlockKey     []byte `yaml:"-"`
	SessionHours int    `yaml:"session_hours"`
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		BaseURL                string `yaml:"base_url"`
		Timezone               string `yaml:"timezone"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Business      BusinessConfig      `yaml:"business"`
	Hours         *hours.Policy       `yaml:"hours"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Limits        LimitsConfig        `yaml:"limits"`
	Admin         AdminConfig         `yaml:"admin"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes YAML config, pulls secrets through getenv, applies defaults
// and validates the result.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Admin.PasswordHash = getenv("ADMIN_PASSWORD_HASH")
	var err error
	if cfg.Admin.HashKey, err = decodeKey("SESSION_HASH_KEY", getenv("SESSION_HASH_KEY")); err != nil {
		return nil, err
	}
	if cfg.Admin.BlockKey, err = decodeKey("SESSION_BLOCK_KEY", getenv("SESSION_BLOCK_KEY")); err != nil {
		return nil, err
	}
	cfg.Notifications.AccessKeyID = getenv("AWS_ACCESS_KEY_ID")
	cfg.Notifications.SecretAccessKey = getenv("AWS_SECRET_ACCESS_KEY")

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func decodeKey(name, raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be base64: %w", name, err)
	}
	return key, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = defaultTimezone
	}
	if c.App.ShutdownTimeoutSeconds == 0 {
		c.App.ShutdownTimeoutSeconds = 10
	}
	if c.Business.Region == "" {
		c.Business.Region = "BR"
	}
	if len(c.Business.Services) == 0 {
		c.Business.Services = []string{"Manicure"}
	}
	if c.Business.RetentionDays == 0 {
		c.Business.RetentionDays = defaultRetentionDays
	}
	if c.Business.PurgeCron == "" {
		c.Business.PurgeCron = defaultPurgeCron
	}
	if c.Hours == nil {
		policy := hours.DefaultPolicy()
		c.Hours = &policy
	}
	if c.Limits.PhoneCooldownSeconds == 0 {
		c.Limits.PhoneCooldownSeconds = 60
	}
	if c.Limits.PhoneHourlyMax == 0 {
		c.Limits.PhoneHourlyMax = 5
	}
	if c.Limits.IPHourlyMax == 0 {
		c.Limits.IPHourlyMax = 20
	}
	if c.Admin.SessionHours == 0 {
		c.Admin.SessionHours = 12
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app timezone %q: %w", c.App.Timezone, err)
	}

	switch c.Database.Driver {
	case "":
		return fmt.Errorf("database driver is required")
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if strings.TrimSpace(c.Business.WhatsAppPhone) == "" {
		return fmt.Errorf("business whatsapp_phone is required")
	}
	if _, err := cron.ParseStandard(c.Business.PurgeCron); err != nil {
		return fmt.Errorf("business purge_cron %q: %w", c.Business.PurgeCron, err)
	}
	for _, name := range c.Business.Services {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("business services must not contain blank names")
		}
	}
	if err := c.Hours.Validate(); err != nil {
		return err
	}

	if c.Notifications.Enabled {
		if c.Notifications.Region == "" || c.Notifications.Sender == "" || c.Notifications.ProviderEmail == "" {
			return fmt.Errorf("notifications require region, sender and provider_email")
		}
		if c.Notifications.AccessKeyID == "" || c.Notifications.SecretAccessKey == "" {
			return fmt.Errorf("notifications require AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
		}
	}

	if c.IsProduction() {
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production")
		}
		if len(c.Admin.HashKey) < 32 {
			return fmt.Errorf("SESSION_HASH_KEY must decode to at least 32 bytes in production")
		}
	}
	if n := len(c.Admin.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Location resolves the business timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
