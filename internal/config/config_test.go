package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/agency-catalog/internal/config"
)

func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolatedHome(t)

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.Retries)
	assert.Equal(t, 500, cfg.Catalog.PageSize)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, filepath.Join(home, ".cache", "agency-catalog", "cache.db"), cfg.Cache.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	home := isolatedHome(t)
	content := `api:
  base_url: https://cms.example.com/api/v1
  retries: 0
catalog:
  page_size: 100
cache:
  path: ~/catalog.db
  ttl: 1m
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ".agency-catalog.yaml"), []byte(content), 0o600))

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 0, cfg.API.Retries)
	assert.Equal(t, 100, cfg.Catalog.PageSize)
	assert.Equal(t, filepath.Join(home, "catalog.db"), cfg.Cache.Path)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolatedHome(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.com\n"), 0o600))
	t.Setenv("CATALOG_API_BASE_URL", "https://env.example.com")
	t.Setenv("CATALOG_LOG_LEVEL", "debug")

	v, err := config.New(path)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	isolatedHome(t)

	_, err := config.New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		API:     config.APIConfig{BaseURL: "http://localhost", Timeout: time.Second, Retries: 1},
		Catalog: config.CatalogConfig{PageSize: 10},
		Cache:   config.CacheConfig{Enabled: true, Path: "/tmp/c.db", TTL: time.Minute},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty base url", func(c *config.Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"non http base url", func(c *config.Config) { c.API.BaseURL = "ftp://x" }, "http(s) URL"},
		{"zero timeout", func(c *config.Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative retries", func(c *config.Config) { c.API.Retries = -1 }, "api.retries"},
		{"zero page size", func(c *config.Config) { c.Catalog.PageSize = 0 }, "catalog.page_size"},
		{"zero ttl", func(c *config.Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"no cache path", func(c *config.Config) { c.Cache.Path = "" }, "cache.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	disabled := valid
	disabled.Cache = config.CacheConfig{Enabled: false}
	assert.NoError(t, disabled.Validate())
}
