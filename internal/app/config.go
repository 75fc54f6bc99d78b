package app

import (
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	DataDir       string `envconfig:"DATA_DIR" default:"data"`
	ProductsFile  string `envconfig:"PRODUCTS_FILE"`
	CustomersFile string `envconfig:"CUSTOMERS_FILE"`
	UsersFile     string `envconfig:"USERS_FILE"`
	BillsDir      string `envconfig:"BILLS_DIR" default:"bills"`

	WatchInterval time.Duration `envconfig:"WATCH_INTERVAL" default:"2s"`
	WatchDebounce time.Duration `envconfig:"WATCH_DEBOUNCE" default:"300ms"`
}

// LoadConfig reads configuration from environment variables. Store paths
// default to files under DataDir unless overridden individually.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.ProductsFile == "" {
		cfg.ProductsFile = filepath.Join(cfg.DataDir, "products.csv")
	}
	if cfg.CustomersFile == "" {
		cfg.CustomersFile = filepath.Join(cfg.DataDir, "customers.csv")
	}
	if cfg.UsersFile == "" {
		cfg.UsersFile = filepath.Join(cfg.DataDir, "users.csv")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
