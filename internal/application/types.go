package application

import (
	"context"
	"io"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// DefaultScriptKey is the package.json scripts entry consulted for a
// user-defined report command.
const DefaultScriptKey = "coverage:report"

// CoverageStore persists the accumulated coverage map. Load returns an empty
// map when nothing has been persisted yet.
type CoverageStore interface {
	Load() (domain.CoverageMap, error)
	Save(m domain.CoverageMap) error
	Exists() (bool, error)
	// Path is the location of the persisted file; its directory doubles as
	// the reporting engine's temp dir.
	Path() string
}

// PathFixer rewrites coverage map keys so downstream tooling can resolve them
// from the current working directory.
type PathFixer interface {
	// Fix normalizes relative keys against the working directory.
	Fix(m domain.CoverageMap) domain.CoverageMap
	// AllUnresolvable reports whether none of the recorded paths exist on disk.
	AllUnresolvable(m domain.CoverageMap) bool
	// ResolveByBasename searches the working tree for files matching the
	// recorded basenames and rewrites keys with a unique match. Returns the
	// number of rewritten entries.
	ResolveByBasename(m domain.CoverageMap) int
}

// ReportConfig carries the reporting engine options sourced from project
// configuration, with report-time overrides applied.
type ReportConfig struct {
	TempDir   string
	ReportDir string
	Reporters []string
}

// ProjectConfig reads the host project's configuration (package.json and the
// engine's rc files).
type ProjectConfig interface {
	// ReportScript returns the named script under the given scripts key,
	// or found=false when the project defines none.
	ReportScript(key string) (script string, found bool, err error)
	ReportOptions() (ReportConfig, error)
}

// ReportEngine renders the accumulated coverage into human-readable output.
type ReportEngine interface {
	Report(ctx context.Context, cfg ReportConfig) error
}

// ScriptRunner executes a project-defined script with inherited stdio.
type ScriptRunner interface {
	Run(ctx context.Context, script string) error
}

// SummaryWriter prints operator-facing coverage diagnostics.
type SummaryWriter interface {
	WriteSummary(w io.Writer, m domain.CoverageMap) error
	WriteFinal(w io.Writer, reportDir string) error
}

// ResetOptions control the reset operation.
type ResetOptions struct {
	// Interactive mirrors the host runner's mode: interactive reruns must
	// restart accumulation, headless runs must not wipe prior specs.
	Interactive bool
}

// ReportOptions control the report operation.
type ReportOptions struct {
	ReportDir string   // overrides the project's report directory
	Reporters []string // overrides the project's reporter list
	ScriptKey string   // package.json scripts key (default "coverage:report")
	Script    string   // explicit script override, bypasses discovery
}
