// Package nyc shells out to the nyc reporting engine and to project-defined
// npm scripts.
package nyc

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/covertask/internal/application"
)

// Engine invokes `npx nyc report` against the accumulated coverage folder.
type Engine struct {
	// Dir is the directory to run in (default: the working directory).
	Dir string
	// Exec overrides command execution (for testing).
	Exec func(ctx context.Context, dir, cmd string, args []string) error
}

// Report renders the accumulated coverage with the engine. Standard streams
// are inherited so reporter output reaches the operator directly; the
// subprocess exit code propagates as the returned error.
func (e Engine) Report(ctx context.Context, cfg application.ReportConfig) error {
	args := []string{"nyc", "report"}
	if cfg.TempDir != "" {
		args = append(args, "--temp-dir", cfg.TempDir)
	}
	if cfg.ReportDir != "" {
		args = append(args, "--report-dir", cfg.ReportDir)
	}
	for _, reporter := range cfg.Reporters {
		args = append(args, "--reporter="+reporter)
	}

	execFn := e.Exec
	if execFn == nil {
		execFn = runCommand
	}
	if err := execFn(ctx, e.Dir, "npx", args); err != nil {
		return fmt.Errorf("nyc report failed: %w", err)
	}
	return nil
}

// ScriptRunner executes a package.json script via the project's script
// runner with inherited stdio.
type ScriptRunner struct {
	Dir  string
	Exec func(ctx context.Context, dir, cmd string, args []string) error
}

// Run invokes `npm run <script>`.
func (r ScriptRunner) Run(ctx context.Context, script string) error {
	execFn := r.Exec
	if execFn == nil {
		execFn = runCommand
	}
	if err := execFn(ctx, r.Dir, "npm", []string{"run", script}); err != nil {
		return fmt.Errorf("report script %q failed: %w", script, err)
	}
	return nil
}

func runCommand(ctx context.Context, dir, name string, args []string) error {
	// #nosec G204 -- Command name is fixed (npx/npm); args are built above
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
