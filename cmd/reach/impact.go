package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/progress"
	"github.com/panbanda/reach/internal/service/analysis"
)

func impactCmd() *cli.Command {
	return &cli.Command{
		Name:      "impact",
		Usage:     "Predict the impact of editing a set of files",
		ArgsUsage: "[path]",
		Description: `Resolves each target file, walks its dependents up to --depth hops and
classifies the change as low, medium, high or critical. Targets come from
--files, from uncommitted git changes (--changed) or from the files changed
since a revision (--since).

Examples:
  reach impact --files src/models/user.ts
  reach impact --files src/a.ts,src/b.ts --depth 3
  reach impact --changed
  reach impact --since main`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "files",
				Usage: "Files that will be edited, relative to path (comma-separated)",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Maximum number of import hops (default from config)",
			},
			&cli.BoolFlag{
				Name:  "changed",
				Usage: "Also target files with uncommitted git changes",
			},
			&cli.StringFlag{
				Name:  "since",
				Usage: "Also target files changed between this revision and HEAD",
			},
		},
		Action: runImpactCmd,
	}
}

func runImpactCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Predicting impact...")
	imp, err := svc.PredictImpact(c.Context, getPath(c), analysis.ImpactOptions{
		Targets:    c.StringSlice("files"),
		Depth:      c.Int("depth"),
		Changed:    c.Bool("changed"),
		Since:      c.String("since"),
		OnProgress: tracker.Tick,
	})
	if errors.Is(err, analysis.ErrNoTargets) {
		tracker.FinishSkipped("no targets")
		color.Yellow("No files given and no changed files found")
		return nil
	}
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("predict impact: %w", err)
	}
	tracker.FinishSuccess()

	return emit(c, svc, output.Impact(imp))
}
