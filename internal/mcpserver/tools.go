package mcpserver

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/service/analysis"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Root   string `json:"root,omitempty" jsonschema:"Project root directory. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// FilesInput selects files below the root.
type FilesInput struct {
	AnalyzeInput
	Files []string `json:"files,omitempty" jsonschema:"Files to scan, relative to root. Defaults to every source file."`
}

// BlastRadiusInput names the file whose dependents are listed.
type BlastRadiusInput struct {
	AnalyzeInput
	File  string `json:"file" jsonschema:"File whose dependents to list, relative to root."`
	Depth int    `json:"depth,omitempty" jsonschema:"Maximum number of import hops to follow. Default 2."`
}

// ImpactInput selects the files whose edit is predicted.
type ImpactInput struct {
	AnalyzeInput
	Files   []string `json:"files,omitempty" jsonschema:"Files that will be edited, relative to root."`
	Depth   int      `json:"depth,omitempty" jsonschema:"Maximum number of import hops to follow. Default 2."`
	Changed bool     `json:"changed,omitempty" jsonschema:"Also target files with uncommitted git changes."`
	Since   string   `json:"since,omitempty" jsonschema:"Also target files changed between this git revision and HEAD."`
}

func getRoot(input AnalyzeInput) string {
	if input.Root == "" {
		return "."
	}
	return input.Root
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(r output.Renderable, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleScanBlocks(ctx context.Context, req *mcp.CallToolRequest, input FilesInput) (*mcp.CallToolResult, any, error) {
	res, err := s.svc.ScanBlocks(ctx, getRoot(input.AnalyzeInput), input.Files, nil)
	if err != nil {
		return toolError(err.Error())
	}
	if len(res.Spans) == 0 && len(res.Warnings) == 0 {
		return toolError("no blocks found")
	}
	return toolResult(output.Blocks(res.Spans, res.Long, res.Warnings, res.Threshold), getFormat(input.AnalyzeInput))
}

func (s *Server) handleListImports(ctx context.Context, req *mcp.CallToolRequest, input FilesInput) (*mcp.CallToolResult, any, error) {
	res, err := s.svc.ListImports(ctx, getRoot(input.AnalyzeInput), input.Files, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.Imports(res.Imports, res.Warnings), getFormat(input.AnalyzeInput))
}

func (s *Server) handleAnalyzeGraph(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	res, err := s.svc.BuildGraph(ctx, getRoot(input), analysis.GraphOptions{})
	if err != nil {
		return toolError(err.Error())
	}
	if len(res.Files) == 0 {
		return toolError("no source files found")
	}
	return toolResult(output.Graph(res), getFormat(input))
}

func (s *Server) handleFindCycles(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	res, err := s.svc.BuildGraph(ctx, getRoot(input), analysis.GraphOptions{})
	if err != nil {
		return toolError(err.Error())
	}
	cycles := analysis.FindCycles(res)
	return toolResult(output.Cycles(cycles.Cycles, cycles.Order), getFormat(input))
}

func (s *Server) handleBlastRadius(ctx context.Context, req *mcp.CallToolRequest, input BlastRadiusInput) (*mcp.CallToolResult, any, error) {
	if input.File == "" {
		return toolError("file is required")
	}
	br, err := s.svc.BlastRadius(ctx, getRoot(input.AnalyzeInput), input.File, input.Depth)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.BlastRadius(br.BlastRadius, br.Warnings), getFormat(input.AnalyzeInput))
}

func (s *Server) handlePredictImpact(ctx context.Context, req *mcp.CallToolRequest, input ImpactInput) (*mcp.CallToolResult, any, error) {
	imp, err := s.svc.PredictImpact(ctx, getRoot(input.AnalyzeInput), analysis.ImpactOptions{
		Targets: input.Files,
		Depth:   input.Depth,
		Changed: input.Changed,
		Since:   input.Since,
	})
	if errors.Is(err, analysis.ErrNoTargets) {
		return toolError("no files given and no changed files found")
	}
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.Impact(imp), getFormat(input.AnalyzeInput))
}
