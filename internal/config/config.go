// Package config loads process settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverCSV      = "csv"
	DriverXLSX     = "xlsx"
	DriverPostgres = "postgres"
)

// EnvConfigPath names the variable holding the YAML config path.
const EnvConfigPath = "DRIVER_LEDGER_CONFIG"

var (
	ErrUnknownDriver = errors.New("config: unknown store driver")
	ErrMissingPath   = errors.New("config: store path required")
	ErrMissingDSN    = errors.New("config: store dsn required")
	ErrNegativeRate  = errors.New("config: targets and rates must not be negative")
)

// StoreConfig selects the ledger store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Sheet  string `yaml:"sheet"`
	DSN    string `yaml:"dsn"`
}

// Config is the process configuration.
type Config struct {
	HTTPAddr       string      `yaml:"http_addr"`
	LogLevel       string      `yaml:"log_level"`
	Store          StoreConfig `yaml:"store"`
	DailyTarget    float64     `yaml:"daily_target"`
	HomeChargeRate float64     `yaml:"home_charge_rate"`
	Currency       string      `yaml:"currency"`
	Timezone       string      `yaml:"timezone"`
	Platforms      []string    `yaml:"platforms"`
	// PDFFont is a TrueType file embedded in PDF reports; empty uses the core font.
	PDFFont string `yaml:"pdf_font"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Store: StoreConfig{
			Driver: DriverCSV,
			Path:   "var/ledger.csv",
			Sheet:  "ledger",
		},
		DailyTarget:    2000,
		HomeChargeRate: 0,
		Currency:       "THB",
		Timezone:       "Local",
		Platforms:      []string{"Grab", "Bolt", "Maxim", "LINE MAN", "Robinhood", "inDrive"},
	}
}

// Load reads .env (when present), then the YAML file named by DRIVER_LEDGER_CONFIG,
// then applies environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFile(os.Getenv(EnvConfigPath))
}

// LoadFile is Load without the .env step. An empty path skips the YAML file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Store.Driver = getenvDefault("LEDGER_STORE", cfg.Store.Driver)
	cfg.Store.Path = getenvDefault("LEDGER_PATH", cfg.Store.Path)
	cfg.Store.Sheet = getenvDefault("LEDGER_SHEET", cfg.Store.Sheet)
	cfg.Store.DSN = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Store.DSN))
	cfg.DailyTarget = getenvFloatDefault("DAILY_TARGET", cfg.DailyTarget)
	cfg.HomeChargeRate = getenvFloatDefault("HOME_CHARGE_RATE", cfg.HomeChargeRate)
	cfg.Currency = getenvDefault("CURRENCY", cfg.Currency)
	cfg.Timezone = getenvDefault("LEDGER_TIMEZONE", cfg.Timezone)
	if platforms := splitCSV(os.Getenv("PLATFORMS")); len(platforms) > 0 {
		cfg.Platforms = platforms
	}
	cfg.PDFFont = getenvDefault("PDF_FONT", cfg.PDFFont)
}

// Validate checks the store selection and numeric settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverCSV, DriverXLSX:
		if c.Store.Path == "" {
			return ErrMissingPath
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	if c.DailyTarget < 0 || c.HomeChargeRate < 0 {
		return ErrNegativeRate
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.PDFFont != "" {
		if _, err := os.Stat(c.PDFFont); err != nil {
			return fmt.Errorf("config: pdf font: %w", err)
		}
	}
	return nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DailyTargetAmount returns the daily target as money.
func (c Config) DailyTargetAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.DailyTarget)
}

// HomeChargeAmount returns the flat home-charge cost as money.
func (c Config) HomeChargeAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.HomeChargeRate)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
