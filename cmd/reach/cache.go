package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the per-file scan cache",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show scan cache statistics",
				ArgsUsage: "[path]",
				Action:    runCacheStatsCmd,
			},
			{
				Name:      "clear",
				Usage:     "Remove every scan cache entry",
				ArgsUsage: "[path]",
				Action:    runCacheClearCmd,
			},
		},
	}
}

func runCacheStatsCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	stats, err := svc.CacheStats(getPath(c))
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	table := output.NewTable(
		"Scan Cache",
		[]string{"Entries", "Size (bytes)", "Oldest", "Newest"},
		[][]string{{
			strconv.Itoa(stats.Entries),
			strconv.FormatInt(stats.TotalSize, 10),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil,
		stats,
	)
	return emit(c, svc, table)
}

func runCacheClearCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	if err := svc.ClearCache(getPath(c)); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	color.Green("Cache cleared")
	return nil
}
