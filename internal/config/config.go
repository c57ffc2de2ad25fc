// Package config loads the companion's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/booster-companion/internal/booster"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
)

// DirName is the per-user directory holding the config file and database.
const DirName = ".booster-companion"

// Config represents the application configuration.
type Config struct {
	// Booster economy tuning
	Economy EconomyConfig `toml:"economy"`

	// Database and backups
	Storage StorageConfig `toml:"storage"`

	// REST API server
	API APIConfig `toml:"api"`

	// Shop catalog
	Shop ShopConfig `toml:"shop"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// EconomyConfig contains timer and reminder settings.
type EconomyConfig struct {
	Cooldown           string `toml:"cooldown"`            // Time between free boosters (e.g., "6h")
	StarterBoosters    int    `toml:"starter_boosters"`    // Boosters granted on first run
	TamperTolerance    string `toml:"tamper_tolerance"`    // Allowed backwards clock skew
	SkipCostPerHour    int    `toml:"skip_cost_per_hour"`  // Coins per started hour of cooldown
	EngagementReminder string `toml:"engagement_reminder"` // Delay of the comeback reminder
	RefreshInterval    string `toml:"refresh_interval"`    // Timer tick in serve mode
}

// StorageConfig contains database settings.
type StorageConfig struct {
	Path           string `toml:"path"`            // SQLite database path (empty = default)
	BackupDir      string `toml:"backup_dir"`      // Backup directory (empty = next to the database)
	BackupInterval string `toml:"backup_interval"` // Scheduled backups in serve mode ("0" disables)
}

// APIConfig contains REST server settings.
type APIConfig struct {
	Port          int      `toml:"port"`
	PurchaseRate  float64  `toml:"purchase_rate"`  // Purchase attempts per second (0 = unlimited)
	PurchaseBurst int      `toml:"purchase_burst"` // Attempts allowed in a burst
	CORSOrigins   []string `toml:"cors_origins"`
}

// ShopConfig lists the products on sale.
type ShopConfig struct {
	Products []purchase.Product `toml:"products"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Economy: EconomyConfig{
			Cooldown:           "6h",
			StarterBoosters:    4,
			TamperTolerance:    "5m",
			SkipCostPerHour:    50,
			EngagementReminder: "24h",
			RefreshInterval:    "1s",
		},
		Storage: StorageConfig{
			Path:           "",
			BackupDir:      "",
			BackupInterval: "24h",
		},
		API: APIConfig{
			Port:          8080,
			PurchaseRate:  1,
			PurchaseBurst: 3,
			CORSOrigins:   []string{"http://localhost:*"},
		},
		Shop: ShopConfig{
			Products: purchase.DefaultProducts(),
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the per-user directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Path returns the path to the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML document over the defaults.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	// A [shop] section replaces the default products rather than merging.
	var probe struct {
		Shop *struct {
			Products []purchase.Product `toml:"products"`
		} `toml:"shop"`
	}
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if probe.Shop != nil {
		config.Shop.Products = nil
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := c.TimerConfig(); err != nil {
		return err
	}

	if _, err := c.GetEngagementReminder(); err != nil {
		return fmt.Errorf("invalid engagement reminder %q: %w", c.Economy.EngagementReminder, err)
	}
	if d, err := c.GetRefreshInterval(); err != nil || d <= 0 {
		return fmt.Errorf("invalid refresh interval %q", c.Economy.RefreshInterval)
	}
	if d, err := c.GetBackupInterval(); err != nil || d < 0 {
		return fmt.Errorf("invalid backup interval %q", c.Storage.BackupInterval)
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}
	if c.API.PurchaseRate < 0 {
		return fmt.Errorf("purchase rate cannot be negative: %v", c.API.PurchaseRate)
	}
	if c.API.PurchaseBurst < 0 {
		return fmt.Errorf("purchase burst cannot be negative: %d", c.API.PurchaseBurst)
	}

	if _, err := purchase.NewProductSet(c.Shop.Products); err != nil {
		return fmt.Errorf("invalid shop products: %w", err)
	}
	return nil
}

// TimerConfig converts the [economy] section into booster timer parameters.
func (c *Config) TimerConfig() (booster.Config, error) {
	cooldown, err := time.ParseDuration(c.Economy.Cooldown)
	if err != nil {
		return booster.Config{}, fmt.Errorf("invalid cooldown %q: %w", c.Economy.Cooldown, err)
	}
	tolerance, err := time.ParseDuration(c.Economy.TamperTolerance)
	if err != nil {
		return booster.Config{}, fmt.Errorf("invalid tamper tolerance %q: %w", c.Economy.TamperTolerance, err)
	}

	cfg := booster.Config{
		Cooldown:        cooldown,
		StarterBoosters: c.Economy.StarterBoosters,
		TamperTolerance: tolerance,
		SkipCostPerHour: c.Economy.SkipCostPerHour,
	}
	if err := cfg.Validate(); err != nil {
		return booster.Config{}, err
	}
	return cfg, nil
}

// GetEngagementReminder returns the comeback reminder delay.
func (c *Config) GetEngagementReminder() (time.Duration, error) {
	return time.ParseDuration(c.Economy.EngagementReminder)
}

// GetRefreshInterval returns the serve-mode timer tick.
func (c *Config) GetRefreshInterval() (time.Duration, error) {
	return time.ParseDuration(c.Economy.RefreshInterval)
}

// GetBackupInterval returns the scheduled backup interval. Zero disables it.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	return time.ParseDuration(c.Storage.BackupInterval)
}

// DatabasePath returns the configured database path or the default one.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "economy.db"), nil
}
