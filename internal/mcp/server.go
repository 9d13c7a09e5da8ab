package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covertask/internal/application"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	store  application.CoverageStore
	config Config
}

// New creates a new task server wrapping the given service. The store is
// read directly by the summary resource.
func New(svc Service, store application.CoverageStore, cfg Config) *Server {
	// Apply defaults
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultConfig().StorePath
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = DefaultConfig().ReportDir
	}
	if cfg.ScriptKey == "" {
		cfg.ScriptKey = DefaultConfig().ScriptKey
	}

	return &Server{
		svc:    svc,
		store:  store,
		config: cfg,
	}
}

// Run starts the task server and blocks until the context is canceled.
// The registration signal is exported before serving so instrumented code
// launched afterwards knows the tasks exist.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "covertask",
			Version: Version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
		},
	)

	// Register tools
	s.registerTools(server)

	// Register resources
	s.registerResources(server)

	if err := os.Setenv(EnvTasksRegistered, "1"); err != nil {
		return fmt.Errorf("set registration signal: %w", err)
	}

	// Run with STDIO transport
	transport := &mcp.StdioTransport{}
	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("task server error: %w", err)
	}

	return nil
}

// registerTools adds all tool handlers to the server.
func (s *Server) registerTools(server *mcp.Server) {
	// Reset tool - clears accumulated coverage before a run
	mcp.AddTool(server, &mcp.Tool{
		Name:        "coverage_reset",
		Description: "Clear accumulated coverage before a test run. In interactive mode the persisted map is emptied; in headless mode previous results are kept.",
	}, s.handleReset)

	// Combine tool - merges one spec's coverage into the store
	mcp.AddTool(server, &mcp.Tool{
		Name:        "coverage_combine",
		Description: "Merge an istanbul-format coverage object from a finished spec into the persisted coverage map.",
	}, s.handleCombine)

	// Report tool - renders the accumulated coverage
	mcp.AddTool(server, &mcp.Tool{
		Name:        "coverage_report",
		Description: "Generate a coverage report from the accumulated map, via a custom package.json script or the nyc engine.",
	}, s.handleReport)
}

// registerResources adds all resource handlers to the server.
func (s *Server) registerResources(server *mcp.Server) {
	// Summary resource
	server.AddResource(&mcp.Resource{
		URI:         "covertask://summary",
		Name:        "Coverage Summary",
		Description: "Per-file statement coverage for the accumulated map",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)

	// Config resource
	server.AddResource(&mcp.Resource{
		URI:         "covertask://config",
		Name:        "Task Configuration",
		Description: "Effective store path, report directory, and script key",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}
