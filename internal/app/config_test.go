package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "LOG_FORMAT", "DATA_DIR", "PRODUCTS_FILE", "CUSTOMERS_FILE", "USERS_FILE", "BILLS_DIR", "WATCH_INTERVAL", "WATCH_DEBOUNCE"} {
		// t.Setenv registers the restore; the unset makes the default apply.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.False(t, cfg.IsProduction())
	require.Equal(t, filepath.Join("data", "products.csv"), cfg.ProductsFile)
	require.Equal(t, filepath.Join("data", "customers.csv"), cfg.CustomersFile)
	require.Equal(t, filepath.Join("data", "users.csv"), cfg.UsersFile)
	require.Equal(t, 2*time.Second, cfg.WatchInterval)
	require.Equal(t, 300*time.Millisecond, cfg.WatchDebounce)
}

func TestLoadConfigHonoursOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_DIR", "/var/lib/meridian")
	t.Setenv("PRODUCTS_FILE", "/tmp/override.csv")
	t.Setenv("WATCH_INTERVAL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "/tmp/override.csv", cfg.ProductsFile)
	require.Equal(t, filepath.Join("/var/lib/meridian", "customers.csv"), cfg.CustomersFile)
	require.Equal(t, 5*time.Second, cfg.WatchInterval)
}
