// Package wizard runs the interactive init flow that writes .covertask.yaml.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/covertask/internal/infrastructure/config"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		storePath string
		reportDir string
		reporters []reporterChoice
		cursor    int
		confirmed bool
		aborted   bool
	}

	reporterChoice struct {
		name     string
		selected bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// knownReporters are the nyc reporters offered by the wizard.
var knownReporters = []string{"lcov", "text", "text-summary", "html", "json", "json-summary"}

// Run walks the operator through the report settings and returns the
// resulting config plus whether it was confirmed.
func Run(cfg config.Config, stdout io.Writer, stdin io.Reader) (config.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg config.Config) *initWizardModel {
	selected := make(map[string]bool, len(cfg.Report.Reporters))
	for _, r := range cfg.Report.Reporters {
		selected[r] = true
	}
	reporters := make([]reporterChoice, len(knownReporters))
	for i, name := range knownReporters {
		reporters[i] = reporterChoice{name: name, selected: selected[name]}
	}
	return &initWizardModel{
		state:     stateIntro,
		storePath: cfg.Store,
		reportDir: cfg.Report.Dir,
		reporters: reporters,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case " ", "x":
			if m.state == stateEdit {
				m.toggleSelection()
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	max := len(m.reporters) - 1
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > max {
		m.cursor = max
	}
}

func (m *initWizardModel) toggleSelection() {
	if m.cursor < 0 || m.cursor >= len(m.reporters) {
		return
	}
	m.reporters[m.cursor].selected = !m.reporters[m.cursor].selected
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovertask init wizard\n\n")
	fmt.Fprintf(&b, "Coverage accumulates in %s and reports render to %s.\n\n", m.storePath, m.reportDir)
	fmt.Fprintf(&b, "Press Enter to pick reporters, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nSelect reporters\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, space to toggle.\n\n")
	for idx, r := range m.reporters {
		prefix := "  "
		if m.cursor == idx {
			prefix = "> "
		}
		mark := "[ ]"
		if r.selected {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, mark, r.name)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Coverage store: %s\n", m.storePath)
	fmt.Fprintf(&b, "Report directory: %s\n", m.reportDir)
	fmt.Fprintf(&b, "Reporters:\n")
	selected := m.selectedReporters()
	if len(selected) == 0 {
		fmt.Fprintf(&b, "  (engine defaults)\n")
	}
	for _, name := range selected {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) selectedReporters() []string {
	var out []string
	for _, r := range m.reporters {
		if r.selected {
			out = append(out, r.name)
		}
	}
	return out
}

func (m *initWizardModel) toConfig() config.Config {
	cfg := config.Default()
	cfg.Store = m.storePath
	cfg.Report.Dir = m.reportDir
	if selected := m.selectedReporters(); len(selected) > 0 {
		cfg.Report.Reporters = selected
	}
	return cfg
}
