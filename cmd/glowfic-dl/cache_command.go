package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"glowficdl/internal/chaptercache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the chapter cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func openChapterCache(ctx *commandContext) (*chaptercache.Cache, bool, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	cache, err := chaptercache.Open(cfg)
	if err != nil {
		return nil, cfg.Cache.Enabled, fmt.Errorf("open chapter cache: %w", err)
	}
	return cache, cfg.Cache.Enabled, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show chapter cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, enabled, err := openChapterCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !enabled {
				fmt.Fprintln(out, "Chapter cache is disabled; set cache.enabled = true to use it.")
			}

			oldest, newest := "-", "-"
			if !stats.Oldest.IsZero() {
				oldest = humanize.Time(stats.Oldest)
			}
			if !stats.Newest.IsZero() {
				newest = humanize.Time(stats.Newest)
			}
			rows := [][]string{
				{"Path", stats.Path},
				{"Chapters", strconv.Itoa(stats.Entries)},
				{"Stored pages", humanize.Bytes(uint64(stats.Bytes))},
				{"File size", humanize.Bytes(uint64(stats.FileSize))},
				{"Oldest fetch", oldest},
				{"Newest fetch", newest},
			}
			fmt.Fprintln(out, renderTable([]string{"Cache", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, _, err := openChapterCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached chapters\n", removed)
			return nil
		},
	}
}
