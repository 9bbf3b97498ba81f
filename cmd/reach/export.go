package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/progress"
	"github.com/panbanda/reach/internal/service/analysis"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Save a dependency graph snapshot to SQLite",
		ArgsUsage: "[path]",
		Description: `Builds the graph and writes files, file dependencies, modules, cycles,
blocks and warnings to a SQLite database. A snapshot is only written when
the graph changed since the last export of the same root.

Examples:
  reach export --db reach.db
  reach export --db reach.db --keep 5 ./web`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Value: ".reach/reach.db",
				Usage: "SQLite database file",
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Keep only the newest N snapshots of this root (0 keeps all)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Write a snapshot even when nothing changed",
			},
		},
		Action: runExportCmd,
	}
}

func runExportCmd(c *cli.Context) error {
	if c.Int("keep") < 0 {
		return fmt.Errorf("--keep must not be negative (got %d)", c.Int("keep"))
	}
	db := c.String("db")
	if dir := filepath.Dir(db); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Exporting snapshot...")
	res, err := svc.Export(c.Context, getPath(c), db, analysis.ExportOptions{
		Keep:       c.Int("keep"),
		Force:      c.Bool("force"),
		OnProgress: tracker.Tick,
	})
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("export: %w", err)
	}
	tracker.FinishSuccess()

	if res.Unchanged {
		color.Yellow("Nothing changed since snapshot %d", res.SnapshotID)
	} else {
		color.Green("Saved snapshot %d to %s", res.SnapshotID, res.Database)
	}
	if res.Pruned > 0 {
		color.Yellow("Pruned %d older snapshots", res.Pruned)
	}
	return emit(c, svc, output.Rows(fmt.Sprintf("Snapshot %d", res.SnapshotID), res.Rows))
}
