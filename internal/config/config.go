package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Backend
	BaseURL        string `mapstructure:"INVENTORIA_API_URL"`
	TimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	// Client
	Env       string `mapstructure:"APP_ENV"` // development | production
	PageSize  int    `mapstructure:"PAGE_SIZE"`
	TokenPath string `mapstructure:"TOKEN_PATH"` // empty: <user config dir>/inventoria/token
	ExportDir string `mapstructure:"EXPORT_DIR"`

	// ScannerDevice is the line-oriented device a HID code scanner presents
	// (e.g. /dev/hidraw0). Empty disables the scan command.
	ScannerDevice string `mapstructure:"SCANNER_DEVICE"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("INVENTORIA_API_URL", "http://localhost:8000")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PAGE_SIZE", 5)
	viper.SetDefault("TOKEN_PATH", "")
	viper.SetDefault("EXPORT_DIR", ".")
	viper.SetDefault("SCANNER_DEVICE", "")

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.TokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.TokenPath = filepath.Join(dir, "inventoria", "token")
	}
	return cfg, nil
}
