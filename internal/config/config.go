// Package config provides YAML-based configuration loading for Huntmaster.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Huntmaster configuration, loaded from huntmaster.yaml.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Database  DatabaseConfig  `yaml:"database"`
	Drive     DriveConfig     `yaml:"drive"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DiscordConfig holds bot credentials.
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// DatabaseConfig selects and configures the backing store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite only
}

// DriveConfig holds Google Drive/Sheets integration settings. Leaving
// CredentialsFile empty disables the integration entirely.
type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// ReconcileConfig holds timing for the background loops.
type ReconcileConfig struct {
	TickSeconds        int    `yaml:"tick_seconds"`         // archive/delete scan interval
	DeleteGraceMinutes int    `yaml:"delete_grace_minutes"` // wait after a delete request
	NexusSeconds       int    `yaml:"nexus_seconds"`        // nexus sheet refresh interval
	HuntSweepSchedule  string `yaml:"hunt_sweep_schedule"`  // 5-field cron expression
}

// DashboardConfig holds the ops dashboard settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "huntmaster"
	}
	if c.Database.Path == "" {
		c.Database.Path = "huntmaster.db"
	}
	if c.Reconcile.TickSeconds == 0 {
		c.Reconcile.TickSeconds = 30
	}
	if c.Reconcile.DeleteGraceMinutes == 0 {
		c.Reconcile.DeleteGraceMinutes = 5
	}
	if c.Reconcile.NexusSeconds == 0 {
		c.Reconcile.NexusSeconds = 60
	}
	if c.Reconcile.HuntSweepSchedule == "" {
		c.Reconcile.HuntSweepSchedule = "0 4 * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be sqlite or mysql, got %q", c.Database.Driver))
	}
	if c.Reconcile.TickSeconds < 0 {
		errs = append(errs, "reconcile.tick_seconds must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
