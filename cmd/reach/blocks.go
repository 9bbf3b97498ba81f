package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/progress"
	"github.com/panbanda/reach/pkg/analyzer/blocks"
)

func blocksCmd() *cli.Command {
	return &cli.Command{
		Name:      "blocks",
		Aliases:   []string{"b"},
		Usage:     "Locate function blocks and their line spans",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Project root the files are relative to",
			},
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "Flag blocks longer than this many lines (default from config)",
			},
		},
		Action: runBlocksCmd,
	}
}

func runBlocksCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Scanning blocks...")
	res, err := svc.ScanBlocks(c.Context, c.String("root"), getFiles(c), tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("scan blocks: %w", err)
	}
	tracker.FinishSuccess()

	if len(res.Spans) == 0 && len(res.Warnings) == 0 {
		color.Yellow("No blocks found")
		return nil
	}

	if threshold := c.Int("threshold"); threshold > 0 {
		res.Threshold = threshold
		res.Long = blocks.LongBlocks(res.Spans, threshold)
	}
	return emit(c, svc, output.Blocks(res.Spans, res.Long, res.Warnings, res.Threshold))
}

func importsCmd() *cli.Command {
	return &cli.Command{
		Name:      "imports",
		Aliases:   []string{"i"},
		Usage:     "Extract import statements, require calls and re-exports",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Project root the files are relative to",
			},
		},
		Action: runImportsCmd,
	}
}

func runImportsCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Extracting imports...")
	res, err := svc.ListImports(c.Context, c.String("root"), getFiles(c), tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("list imports: %w", err)
	}
	tracker.FinishSuccess()

	if len(res.Imports) == 0 && len(res.Warnings) == 0 {
		color.Yellow("No imports found")
		return nil
	}
	return emit(c, svc, output.Imports(res.Imports, res.Warnings))
}
