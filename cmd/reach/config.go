package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/reach/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  reach config show               # Show effective config
  reach -c reach.toml config show # Show config from specific file`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a reach configuration file against its schema and for
invalid values.

Examples:
  reach config validate                    # Validates default config locations
  reach -c reach.toml config validate      # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "reach.toml",
						Usage: "Config file to create",
					},
					&cli.BoolFlag{
						Name:  "yaml",
						Usage: "Write YAML instead of TOML",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON Schema config files are validated against",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, string(config.SchemaJSON()))
					return nil
				},
			},
		},
	}
}

func configLoadOptions(c *cli.Context) []config.LoadOption {
	if path := c.String("config"); path != "" {
		return []config.LoadOption{config.WithPath(path)}
	}
	return nil
}

func runConfigValidate(c *cli.Context) error {
	result, err := config.LoadConfig(configLoadOptions(c)...)
	if err != nil {
		color.Red("Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.Green("Configuration valid: %s", result.Source)
	} else {
		color.Yellow("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := config.LoadConfig(configLoadOptions(c)...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(w, string(content))
	return nil
}

func runConfigInit(c *cli.Context) error {
	path := c.String("path")
	asYAML := c.Bool("yaml")
	if asYAML && !c.IsSet("path") {
		path = "reach.yaml"
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig(asYAML)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", path)
	return nil
}

func generateDefaultConfig(asYAML bool) (string, error) {
	cfg := config.DefaultConfig()

	var (
		content []byte
		err     error
	)
	if asYAML {
		content, err = yaml.Marshal(cfg)
	} else {
		content, err = toml.Marshal(cfg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# Reach Configuration\n")
	buf.WriteString("# Documentation: https://github.com/panbanda/reach\n\n")
	buf.Write(content)
	return buf.String(), nil
}
