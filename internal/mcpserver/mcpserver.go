// Package mcpserver exposes the dependency analyses as MCP tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/reach/internal/service/analysis"
)

// Server wraps the MCP server and registers all reach tools.
type Server struct {
	server *mcp.Server
	svc    *analysis.Service
}

// NewServer creates a new MCP server with all tools and prompts registered.
// svc may be nil to use an analysis service with the default configuration.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = analysis.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "reach",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_blocks",
		Description: describeScanBlocks(),
	}, s.handleScanBlocks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_imports",
		Description: describeListImports(),
	}, s.handleListImports)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_graph",
		Description: describeAnalyzeGraph(),
	}, s.handleAnalyzeGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_cycles",
		Description: describeFindCycles(),
	}, s.handleFindCycles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "blast_radius",
		Description: describeBlastRadius(),
	}, s.handleBlastRadius)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "predict_impact",
		Description: describePredictImpact(),
	}, s.handlePredictImpact)
}
