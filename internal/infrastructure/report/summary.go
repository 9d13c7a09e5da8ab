// Package report prints operator-facing coverage diagnostics. Rendering of
// the actual report formats is delegated to the nyc engine.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// Summary writes per-file statement coverage tables.
type Summary struct{}

// WriteSummary prints the accumulated map's file count and per-file
// percentages. Diagnostic only; callers ignore failures.
func (Summary) WriteSummary(w io.Writer, m domain.CoverageMap) error {
	overall := m.Overall()
	fmt.Fprintf(w, "accumulated coverage: %d files, %.1f%% statements\n", len(m), overall.Percent)
	if len(m) == 0 {
		return nil
	}

	colorize := colorEnabled(w)
	highStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	midStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)
	lowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "File\tStatements\tCovered\tPercent")
	for _, stat := range m.Stats() {
		percent := fmt.Sprintf("%.1f%%", stat.Percent)
		if colorize {
			switch {
			case stat.Percent >= 80:
				percent = highStyle.Render(percent)
			case stat.Percent >= 50:
				percent = midStyle.Render(percent)
			default:
				percent = lowStyle.Render(percent)
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", stat.Path, stat.Statements, stat.Covered, percent)
	}
	return tw.Flush()
}

// WriteFinal prints per-file statement ratios from the engine's final
// coverage artifact. A missing artifact is not an error; not every reporter
// list produces one.
func (Summary) WriteFinal(w io.Writer, reportDir string) error {
	path := filepath.Join(reportDir, "coverage-final.json")
	// #nosec G304 -- Path is derived from the resolved report directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	m, err := domain.ParseCoverageMap(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "final coverage in %s:\n", path)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, stat := range m.Stats() {
		_, _ = fmt.Fprintf(tw, "  %s\t%d/%d statements\n", stat.Path, stat.Covered, stat.Statements)
	}
	return tw.Flush()
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
