package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covertask/internal/application"
)

// handleReset implements the coverage_reset tool.
func (s *Server) handleReset(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ResetInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	err := s.svc.Reset(ctx, application.ResetOptions{
		Interactive: input.Interactive,
	})

	output := ToolOutput{OK: err == nil}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to reset coverage"
		return nil, output, nil
	}

	if input.Interactive {
		output.Summary = "Accumulated coverage cleared"
	} else {
		output.Summary = "Headless run, previous coverage kept"
	}
	return nil, output, nil
}

// handleCombine implements the coverage_combine tool.
func (s *Server) handleCombine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CombineInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	if len(input.Coverage) == 0 {
		return nil, ToolOutput{
			OK:      false,
			Error:   "coverage payload is required",
			Summary: "Nothing to combine",
		}, nil
	}

	err := s.svc.Combine(ctx, input.Coverage)

	output := ToolOutput{OK: err == nil}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to combine coverage"
		return nil, output, nil
	}

	output.Summary = fmt.Sprintf("Coverage merged into %s", s.config.StorePath)
	return nil, output, nil
}

// handleReport implements the coverage_report tool.
func (s *Server) handleReport(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	reportDir, err := s.svc.Report(ctx, application.ReportOptions{
		ReportDir: coalesce(input.ReportDir, s.config.ReportDir),
		Reporters: input.Reporters,
		ScriptKey: coalesce(input.ScriptKey, s.config.ScriptKey),
	})

	output := ToolOutput{
		OK:        err == nil,
		ReportDir: reportDir,
	}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to generate report"
		return nil, output, nil
	}

	if reportDir == "" {
		output.Summary = "Report generated by project script"
	} else {
		output.Summary = fmt.Sprintf("Report written to %s", reportDir)
	}
	return nil, output, nil
}
