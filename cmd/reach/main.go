package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/service/analysis"
	"github.com/panbanda/reach/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

const (
	metaConfig = "config"
	metaLogger = "logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "reach",
		Usage:    "Cross-file dependency and change-impact analysis",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Reach locates function blocks, extracts imports and builds the file and
module dependency graph of a project. From the graph it reports circular
module dependencies, the blast radius of a file and the predicted impact
of a change, including the tests it affects.

Supports: JavaScript, TypeScript, Python`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"REACH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			c.App.Metadata[metaLogger] = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
			return nil
		},
		Commands: []*cli.Command{
			blocksCmd(),
			importsCmd(),
			graphCmd(),
			cyclesCmd(),
			blastCmd(),
			impactCmd(),
			exportCmd(),
			cacheCmd(),
			mcpCmd(),
			configCmd(),
		},
	}
}

// getPath returns the first positional arg, defaulting to "."
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// getFiles returns the positional args, or nil to select every source file.
func getFiles(c *cli.Context) []string {
	if c.Args().Len() == 0 {
		return nil
	}
	return c.Args().Slice()
}

func logger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata[metaLogger].(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// loadConfig loads the --config file, or searches the standard locations.
// The result is memoized on the app.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg, nil
	}
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	res, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if res.Source != "" {
		logger(c).Debug("loaded config", "path", res.Source)
	}
	c.App.Metadata[metaConfig] = res.Config
	return res.Config, nil
}

func newService(c *cli.Context) (*analysis.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger(c)),
	}
	if c.Bool("no-cache") {
		opts = append(opts, analysis.WithoutCache())
	}
	return analysis.New(opts...), nil
}

// newFormatter honors --format, falling back to output.format from the
// config when the flag was not given.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if !c.IsSet("format") && cfg.Output.Format != "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && c.String("output") == ""
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), colored)
}

// emit renders r with the configured formatter.
func emit(c *cli.Context, svc *analysis.Service, r output.Renderable) error {
	formatter, err := newFormatter(c, svc.Config())
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(r)
}
