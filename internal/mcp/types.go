// Package mcp exposes the coverage tasks to the host runner's task
// dispatcher over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/covertask/internal/application"
)

// EnvTasksRegistered is set when the task server starts so upstream
// browser-side code can decide whether to emit coverage payloads at all.
const EnvTasksRegistered = "COVERAGE_TASKS_REGISTERED"

// Service defines the application operations needed by the task server.
// This interface allows for easy mocking in tests.
type Service interface {
	Reset(ctx context.Context, opts application.ResetOptions) error
	Combine(ctx context.Context, payload []byte) error
	Report(ctx context.Context, opts application.ReportOptions) (string, error)
}

// Config holds task server configuration.
type Config struct {
	StorePath string // Path to the persisted coverage map (default: ".nyc_output/out.json")
	ReportDir string // Default report directory
	ScriptKey string // package.json scripts key for a custom report script
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		StorePath: ".nyc_output/out.json",
		ReportDir: "coverage",
		ScriptKey: application.DefaultScriptKey,
	}
}

// ResetInput defines the input parameters for the reset task.
type ResetInput struct {
	Interactive bool `json:"interactive,omitempty" jsonschema:"description=Whether the host runner is in interactive mode"`
}

// CombineInput defines the input parameters for the combine task.
type CombineInput struct {
	Coverage json.RawMessage `json:"coverage" jsonschema:"description=Istanbul-format coverage object for one spec"`
}

// ReportInput defines the input parameters for the report task.
type ReportInput struct {
	ReportDir string   `json:"reportDir,omitempty" jsonschema:"description=Directory to write the rendered report into"`
	Reporters []string `json:"reporters,omitempty" jsonschema:"description=Reporter names passed to the engine"`
	ScriptKey string   `json:"scriptKey,omitempty" jsonschema:"description=package.json scripts key for a custom report script"`
}

// ToolOutput represents the common output structure for tasks.
type ToolOutput struct {
	OK        bool   `json:"ok"`
	Summary   string `json:"summary,omitempty"`
	ReportDir string `json:"reportDir,omitempty"`
	Error     string `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
