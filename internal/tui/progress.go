package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mark1russell7/ecosys/internal/types"
)

// ========================================
// Bubbletea Progress Model
// ========================================

// progressModel renders fleet execution progress: a bar plus the node that
// most recently settled.
type progressModel struct {
	current int
	total   int
	label   string
	message string
	done    bool
	failed  bool
	err     error
	width   int
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case nodeSettledMsg:
		m.current++
		m.message = msg.message
	case progressCompleteMsg:
		m.done = true
		return m, tea.Quit
	case progressFailMsg:
		m.failed = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return styleSuccess.Render(fmt.Sprintf("✔ %s (completed: %d/%d)", m.label, m.current, m.total))
	}

	if m.failed {
		return styleErr.Render(fmt.Sprintf("✖ %s (failed: %v)", m.label, m.err))
	}

	percent := float64(m.current) / float64(m.total)
	barWidth := 40
	if m.width < 80 {
		barWidth = 20
	}
	filled := int(percent * float64(barWidth))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := fmt.Sprintf("[%s] %d/%d", bar, m.current, m.total)
	if m.message != "" {
		status += fmt.Sprintf(" - %s", m.message)
	}

	return fmt.Sprintf("%s\n%s", styleTitle.Render(m.label), status)
}

// ========================================
// Bubbletea Messages
// ========================================

type nodeSettledMsg struct {
	message string
}

type progressCompleteMsg struct{}

type progressFailMsg struct {
	err error
}

// ========================================
// GraphProgressTracker
// ========================================

// GraphProgressTracker renders leveled execution progress with bubbletea.
// Wire NodeStart/NodeComplete into the executor's observation callbacks;
// neither alters the schedule.
type GraphProgressTracker struct {
	program *tea.Program
}

// NewGraphProgressTracker creates and starts a tracker for total nodes.
func NewGraphProgressTracker(total int, label string) *GraphProgressTracker {
	m := progressModel{
		total: total,
		label: label,
		width: 80,
	}

	p := tea.NewProgram(m)
	tracker := &GraphProgressTracker{program: p}

	// The program renders in the background while the executor runs.
	go func() {
		_, _ = p.Run()
	}()

	return tracker
}

// NodeStart is the executor's OnNodeStart observer.
func (t *GraphProgressTracker) NodeStart(node *types.DAGNode) {
	// Start events are ignored; settlement advances the bar and sets the message.
}

// NodeComplete is the executor's OnNodeComplete observer.
func (t *GraphProgressTracker) NodeComplete(result *types.NodeResult) {
	status := "ok"
	if result.Skipped {
		status = "skipped"
	} else if !result.Success {
		status = "failed"
	}
	t.program.Send(nodeSettledMsg{message: result.Node.Name + " (" + status + ")"})
}

// Complete marks the run as successfully finished.
func (t *GraphProgressTracker) Complete() {
	t.program.Send(progressCompleteMsg{})
	t.program.Wait()
}

// Fail marks the run as failed.
func (t *GraphProgressTracker) Fail(err error) {
	t.program.Send(progressFailMsg{err: err})
	t.program.Wait()
}
