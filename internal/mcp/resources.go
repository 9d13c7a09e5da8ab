package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// handleSummaryResource returns per-file statement coverage for the
// accumulated map.
func (s *Server) handleSummaryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	coverage, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load coverage: %w", err)
	}

	stats := coverage.Stats()
	overall := coverage.Overall()

	result := struct {
		Files             int               `json:"files"`
		Statements        int               `json:"statements"`
		CoveredStatements int               `json:"coveredStatements"`
		Percent           float64           `json:"percent"`
		PerFile           []domain.FileStat `json:"perFile"`
	}{
		Files:             len(stats),
		Statements:        overall.Statements,
		CoveredStatements: overall.Covered,
		Percent:           overall.Percent,
		PerFile:           stats,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleConfigResource returns the effective task configuration.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	result := struct {
		StorePath string `json:"storePath"`
		ReportDir string `json:"reportDir"`
		ScriptKey string `json:"scriptKey"`
	}{
		StorePath: s.config.StorePath,
		ReportDir: s.config.ReportDir,
		ScriptKey: s.config.ScriptKey,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
