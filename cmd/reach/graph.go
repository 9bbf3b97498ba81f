package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/progress"
	"github.com/panbanda/reach/internal/service/analysis"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"g"},
		Usage:     "Build the file and module dependency graph",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rev",
				Usage: "Build from the files committed at this git revision",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Building dependency graph...")
	res, err := svc.BuildGraph(c.Context, getPath(c), analysis.GraphOptions{
		Rev:        c.String("rev"),
		OnProgress: tracker.Tick,
	})
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("build graph: %w", err)
	}
	tracker.FinishSuccess()

	if len(res.Files) == 0 {
		color.Yellow("No source files found")
		return nil
	}
	return emit(c, svc, output.Graph(res))
}

func cyclesCmd() *cli.Command {
	return &cli.Command{
		Name:      "cycles",
		Usage:     "Detect circular dependencies between modules",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with an error when cycles are found",
			},
		},
		Action: runCyclesCmd,
	}
}

func runCyclesCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Finding cycles...")
	res, err := svc.BuildGraph(c.Context, getPath(c), analysis.GraphOptions{OnProgress: tracker.Tick})
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("build graph: %w", err)
	}
	tracker.FinishSuccess()

	cycles := analysis.FindCycles(res)
	if err := emit(c, svc, output.Cycles(cycles.Cycles, cycles.Order)); err != nil {
		return err
	}
	if c.Bool("fail") && len(cycles.Cycles) > 0 {
		return fmt.Errorf("%d circular dependencies found", len(cycles.Cycles))
	}
	return nil
}

func blastCmd() *cli.Command {
	return &cli.Command{
		Name:      "blast",
		Usage:     "List the direct and indirect dependents of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Project root the file is relative to",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Maximum number of import hops (default from config)",
			},
		},
		Action: runBlastCmd,
	}
}

func runBlastCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("blast requires exactly one file")
	}
	svc, err := newService(c)
	if err != nil {
		return err
	}

	br, err := svc.BlastRadius(c.Context, c.String("root"), c.Args().First(), c.Int("depth"))
	if err != nil {
		return fmt.Errorf("blast radius: %w", err)
	}
	return emit(c, svc, output.BlastRadius(br.BlastRadius, br.Warnings))
}
