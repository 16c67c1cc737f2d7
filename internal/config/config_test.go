package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAppliesDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
catalog:
  base_url: https://shop.example.com/api/v1
  max_retries: 5
import:
  concurrency: 0
database:
  use_db: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api/v1", cfg.Catalog.BaseURL)
	assert.Equal(t, 5, cfg.Catalog.MaxRetries)
	assert.Equal(t, 30, cfg.Catalog.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.RetryWait())
	assert.Equal(t, "physical", cfg.Catalog.ProductType)
	assert.Equal(t, 1, cfg.Import.Concurrency)
	assert.True(t, cfg.Database.UseDB)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CATIMPORT_CATALOG_BASE_URL", "http://catalog.internal/api")
	t.Setenv("CATIMPORT_IMPORT_CONCURRENCY", "4")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://catalog.internal/api", cfg.Catalog.BaseURL)
	assert.Equal(t, 4, cfg.Import.Concurrency)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [unclosed"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Catalog.ProductType = "digital"
	cfg.Analytics.Enabled = true
	cfg.Sources.S3.Endpoint = "http://localhost:4566"

	require.NoError(t, SaveTo(cfg, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSetGet(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"catalog.base_url", "https://api.example.com"},
		{"catalog.token_env", "SHOP_TOKEN"},
		{"catalog.max_retries", "0"},
		{"catalog.requests_per_second", "25"},
		{"import.concurrency", "8"},
		{"import.default_platform", "woocommerce"},
		{"sources.s3.region", "us-east-1"},
		{"outputs.file.pretty", "false"},
		{"database.use_db", "true"},
		{"database.postgres.port", "6543"},
		{"analytics.enabled", "true"},
		{"logging.format", "json"},
		{"state.file", "/tmp/state.json"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.Set(tt.key, tt.value))
			got, err := cfg.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Set("catalog.max_retries", "many"))
	assert.Error(t, cfg.Set("nope.key", "x"))

	_, err := cfg.Get("nope.key")
	assert.Error(t, err)
}

func TestSetInPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveTo(DefaultConfig(), path))

	require.NoError(t, SetIn(path, "catalog.product_type", "service"))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "service", cfg.Catalog.ProductType)
}
