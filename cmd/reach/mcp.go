package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reach/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes reach's analyses
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "reach": {
        "command": "reach",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - scan_blocks     Function blocks and their line spans
  - list_imports    Import statements, require calls and re-exports
  - analyze_graph   File and module dependency graph
  - find_cycles     Circular module dependencies
  - blast_radius    Direct and indirect dependents of a file
  - predict_impact  Change impact, affected tests and next steps`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, svc).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
