package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tayloree/agency-catalog/internal/cache"
	"github.com/tayloree/agency-catalog/internal/display"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove every cached catalog response",
	Example: `  catalog cache clear`,
	RunE:    runCacheClear,
}

var cacheStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show where the cache lives and how many responses it holds",
	Example: `  catalog cache status --json`,
	RunE:    runCacheStatus,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheStatusCmd)
	rootCmd.AddCommand(cacheCmd)
}

type cacheStatusJSON struct {
	Path    string `json:"path" yaml:"path"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	TTL     string `json:"ttl" yaml:"ttl"`
	Entries int    `json:"entries" yaml:"entries"`
	Removed *int64 `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func openCacheStore(cmd *cobra.Command) (*cache.Store, cacheStatusJSON, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cacheStatusJSON{}, err
	}
	status := cacheStatusJSON{
		Path:    cfg.Cache.Path,
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.TTL.String(),
	}
	if cfg.Cache.Path == "" {
		return nil, status, invalidArgsError("cache.path is not set", "catalog cache status --config FILE")
	}
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, status, fmt.Errorf("opening cache: %w", err)
	}
	return store, status, nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	store, status, err := openCacheStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Invalidate(cmd.Context())
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	status.Removed = &removed

	if format != display.FormatText {
		return display.Encode(cmd.OutOrStdout(), format, status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses from %s\n", removed, status.Path)
	return nil
}

func runCacheStatus(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	store, status, err := openCacheStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	status.Entries, err = store.Len(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	if format != display.FormatText {
		return display.Encode(cmd.OutOrStdout(), format, status)
	}
	state := "enabled"
	if !status.Enabled {
		state = "disabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache %s at %s (ttl %s): %d responses\n", state, status.Path, status.TTL, status.Entries)
	return nil
}
