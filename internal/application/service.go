package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// Service implements the coverage tasks invoked by the host test runner:
// reset before a run, combine after every spec, report at the end.
type Service struct {
	Store   CoverageStore
	Paths   PathFixer
	Project ProjectConfig
	Engine  ReportEngine
	Scripts ScriptRunner
	Summary SummaryWriter
	Out     io.Writer
}

// Reset clears the accumulated coverage when the host runner is interactive.
// Headless runs are a no-op: each spec is a separate process invocation and
// the outer process already cleared the output directory, so wiping here
// would drop accumulation from prior specs.
func (s *Service) Reset(ctx context.Context, opts ResetOptions) error {
	if !opts.Interactive {
		return nil
	}
	return s.Store.Save(domain.CoverageMap{})
}

// Combine merges a single spec's coverage payload into the persisted map.
// A malformed payload fails before any state is touched.
func (s *Service) Combine(ctx context.Context, payload []byte) error {
	incoming, err := domain.ParseCoverageMap(payload)
	if err != nil {
		return fmt.Errorf("decode coverage payload: %w", err)
	}
	incoming = s.Paths.Fix(incoming)

	accumulated, err := s.Store.Load()
	if err != nil {
		return err
	}
	return s.Store.Save(domain.Merge(accumulated, incoming))
}

// Report renders the accumulated coverage. It returns the absolute report
// directory, or "" when a custom script handled the rendering or when there
// is nothing to report.
func (s *Service) Report(ctx context.Context, opts ReportOptions) (string, error) {
	exists, err := s.Store.Exists()
	if err != nil {
		return "", err
	}
	if !exists {
		fmt.Fprintf(s.Out, "⚠ cannot find coverage file %s, skipping report\n", s.Store.Path())
		fmt.Fprintln(s.Out, "  run at least one spec with coverage instrumentation first")
		return "", nil
	}

	m, err := s.Store.Load()
	if err != nil {
		return "", err
	}

	// Diagnostic only.
	_ = s.Summary.WriteSummary(s.Out, m)

	if s.Paths.AllUnresolvable(m) {
		fmt.Fprintln(s.Out, "⚠ no recorded source path resolves on disk, searching the working tree")
		if n := s.Paths.ResolveByBasename(m); n > 0 {
			fmt.Fprintf(s.Out, "  relocated %d of %d files by basename\n", n, len(m))
		}
	}
	m = s.Paths.Fix(m)
	if err := s.Store.Save(m); err != nil {
		return "", err
	}

	script, found, err := s.discoverScript(opts)
	if err != nil {
		return "", err
	}
	if found {
		fmt.Fprintf(s.Out, "running custom report script %q\n", script)
		return "", s.Scripts.Run(ctx, script)
	}

	cfg, err := s.reportConfig(opts)
	if err != nil {
		return "", err
	}
	if err := s.Engine.Report(ctx, cfg); err != nil {
		return "", err
	}

	// Diagnostic only.
	_ = s.Summary.WriteFinal(s.Out, cfg.ReportDir)

	return cfg.ReportDir, nil
}

func (s *Service) discoverScript(opts ReportOptions) (string, bool, error) {
	if opts.Script != "" {
		return opts.Script, true, nil
	}
	key := opts.ScriptKey
	if key == "" {
		key = DefaultScriptKey
	}
	return s.Project.ReportScript(key)
}

// reportConfig loads the engine options from project configuration and applies
// the report-time overrides: the temp dir is always the store's folder, and
// the report dir is resolved to an absolute path so the engine writes to the
// same place regardless of invocation location.
func (s *Service) reportConfig(opts ReportOptions) (ReportConfig, error) {
	cfg, err := s.Project.ReportOptions()
	if err != nil {
		return ReportConfig{}, err
	}
	if opts.ReportDir != "" {
		cfg.ReportDir = opts.ReportDir
	}
	if len(opts.Reporters) > 0 {
		cfg.Reporters = opts.Reporters
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "coverage"
	}
	if len(cfg.Reporters) == 0 {
		cfg.Reporters = []string{"lcov", "text-summary"}
	}

	cfg.TempDir = filepath.Dir(s.Store.Path())

	if !filepath.IsAbs(cfg.ReportDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return ReportConfig{}, err
		}
		cfg.ReportDir = filepath.Join(cwd, cfg.ReportDir)
	}
	return cfg, nil
}
