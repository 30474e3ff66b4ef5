package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	fileName  = ".agency-catalog"
	envPrefix = "CATALOG"
)

// Config is the resolved configuration of the catalog CLI.
type Config struct {
	API     APIConfig
	Catalog CatalogConfig
	Cache   CacheConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

type CatalogConfig struct {
	// PageSize is requested large so filtering can happen client side.
	PageSize int
}

type CacheConfig struct {
	Enabled bool
	Path    string
	TTL     time.Duration
}

type LogConfig struct {
	Level string
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retries", 2)
	v.SetDefault("catalog.page_size", 500)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", defaultCachePath())
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
}

func defaultCachePath() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "agency-catalog", "cache.db")
}

// New builds a viper instance layered as defaults, then the config file, then
// CATALOG_* environment variables. cfgFile overrides the default
// $HOME/.agency-catalog.yaml; a missing default file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cachePath, err := homedir.Expand(v.GetString("cache.path"))
	if err != nil {
		return Config{}, fmt.Errorf("expanding cache path: %w", err)
	}

	cfg := Config{
		API: APIConfig{
			BaseURL: strings.TrimSpace(v.GetString("api.base_url")),
			Timeout: v.GetDuration("api.timeout"),
			Retries: v.GetInt("api.retries"),
		},
		Catalog: CatalogConfig{PageSize: v.GetInt("catalog.page_size")},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Path:    cachePath,
			TTL:     v.GetDuration("cache.ttl"),
		},
		Log: LogConfig{Level: v.GetString("log.level")},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the CLI cannot run with.
func (c Config) Validate() error {
	var errs []string
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "api.timeout must be positive")
	}
	if c.API.Retries < 0 {
		errs = append(errs, "api.retries must not be negative")
	}
	if c.Catalog.PageSize <= 0 {
		errs = append(errs, "catalog.page_size must be positive")
	}
	if c.Cache.Enabled {
		if c.Cache.Path == "" {
			errs = append(errs, "cache.path is required when the cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, "cache.ttl must be positive")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
