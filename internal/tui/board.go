// Package tui provides an interactive issue board using Bubble Tea.
//
// The board is a thin presentation layer over a list controller: every
// keystroke either adjusts local filter state (synchronous) or dispatches a
// controller operation as a command (async). Optimistic updates render
// immediately; a rollback shows up as the pre-patch row plus an error banner.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lodenross/boardctl/internal/controller"
	"github.com/lodenross/boardctl/internal/model"
)

// InputMode represents what kind of text input is active.
type InputMode int

const (
	InputNone   InputMode = iota
	InputSearch           // entering search text
	InputCreate           // entering new issue title
)

// Status icons
const (
	iconOpen       = "○"
	iconInProgress = "◐"
	iconReviewing  = "◑"
	iconDone       = "●"
	iconBlocked    = "⊘"
	iconCanceled   = "✗"
)

// statusCycle is the order the space key walks an issue through.
var statusCycle = []model.Status{
	model.StatusOpen,
	model.StatusInProgress,
	model.StatusReviewing,
	model.StatusDone,
}

// statusFilterCycle is the order the s key walks the filter through.
var statusFilterCycle = []string{
	model.FilterAll,
	string(model.StatusOpen),
	string(model.StatusInProgress),
	string(model.StatusReviewing),
	string(model.StatusBlocked),
	string(model.StatusDone),
}

var priorityFilterCycle = []string{
	model.FilterAll,
	string(model.PriorityCritical),
	string(model.PriorityHigh),
	string(model.PriorityMedium),
	string(model.PriorityLow),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusOpen:       lipgloss.Color("252"),
		model.StatusInProgress: lipgloss.Color("214"),
		model.StatusReviewing:  lipgloss.Color("141"),
		model.StatusBlocked:    lipgloss.Color("196"),
		model.StatusDone:       lipgloss.Color("42"),
		model.StatusCanceled:   lipgloss.Color("245"),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return iconOpen
	case model.StatusInProgress:
		return iconInProgress
	case model.StatusReviewing:
		return iconReviewing
	case model.StatusDone:
		return iconDone
	case model.StatusBlocked:
		return iconBlocked
	case model.StatusCanceled:
		return iconCanceled
	default:
		return "?"
	}
}

// Model is the main Bubble Tea model for the board.
type Model struct {
	ctrl      *controller.Controller[model.Issue]
	projectID string
	cursor    int

	// Filter state mirrored into the controller
	statusIdx   int
	priorityIdx int
	search      string

	// Input state
	inputMode InputMode
	inputText string

	// UI state
	width  int
	height int
}

// New creates a board over an issue controller. projectID is stamped onto
// issues created from the board.
func New(ctrl *controller.Controller[model.Issue], projectID string) Model {
	return Model{ctrl: ctrl, projectID: projectID}
}

// Messages
type loadedMsg struct{ err error }
type mutatedMsg struct{ err error }

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.ctrl.Load(context.Background())}
	}
}

func (m Model) cycleStatus(issue model.Issue) tea.Cmd {
	next := statusCycle[0]
	for i, s := range statusCycle {
		if issue.Status == s {
			next = statusCycle[(i+1)%len(statusCycle)]
			break
		}
	}
	patch := issue
	patch.Status = next
	return func() tea.Msg {
		_, err := m.ctrl.Update(context.Background(), issue.ID, patch)
		return mutatedMsg{err: err}
	}
}

func (m Model) removeIssue(id string) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{err: m.ctrl.Remove(context.Background(), id)}
	}
}

func (m Model) createIssue(title string) tea.Cmd {
	draft := model.Issue{
		ProjectID: m.projectID,
		Title:     title,
		Status:    model.StatusOpen,
		Priority:  model.PriorityMedium,
	}
	return func() tea.Msg {
		_, err := m.ctrl.Create(context.Background(), draft)
		return mutatedMsg{err: err}
	}
}

// pushFilter copies local filter state into the controller.
func (m *Model) pushFilter() {
	m.ctrl.SetFilter(controller.Filter{
		Search:   m.search,
		Status:   statusFilterCycle[m.statusIdx],
		Priority: priorityFilterCycle[m.priorityIdx],
	})
	m.cursor = 0
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg, mutatedMsg:
		// The controller already holds the post-operation state (including
		// any rollback); just keep the cursor inside the window.
		m.clampCursor()
		return m, nil
	}

	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.View().Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != InputNone {
		return m.handleInputKey(msg)
	}

	view := m.ctrl.View()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(view.Items)-1 {
			m.cursor++
		}

	case "left", "h":
		if view.Page > 1 {
			m.ctrl.SetPage(view.Page - 1)
			m.cursor = 0
		}

	case "right", "l":
		if view.Page < view.TotalPages() {
			m.ctrl.SetPage(view.Page + 1)
			m.cursor = 0
		}

	case "/":
		m.inputMode = InputSearch
		m.inputText = m.search

	case "c":
		if m.ctrl.Session().Role().CanEdit() {
			m.inputMode = InputCreate
			m.inputText = ""
		}

	case "s":
		m.statusIdx = (m.statusIdx + 1) % len(statusFilterCycle)
		m.pushFilter()

	case "p":
		m.priorityIdx = (m.priorityIdx + 1) % len(priorityFilterCycle)
		m.pushFilter()

	case "r":
		return m, m.load()

	case " ":
		if m.cursor < len(view.Items) && m.ctrl.Session().Role().CanEdit() {
			return m, m.cycleStatus(view.Items[m.cursor])
		}

	case "x":
		// Deleting from the board is gated on role; the confirmation the
		// CLI prompts for is collapsed into the explicit keypress here.
		if m.cursor < len(view.Items) && m.ctrl.Session().Role().CanDelete() {
			return m, m.removeIssue(view.Items[m.cursor].ID)
		}

	case "esc":
		m.ctrl.DismissError()
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = InputNone
		m.inputText = ""
		return m, nil

	case "enter":
		return m.submitInput()

	case "backspace":
		if len(m.inputText) > 0 {
			m.inputText = m.inputText[:len(m.inputText)-1]
			if m.inputMode == InputSearch {
				m.search = m.inputText
				m.pushFilter()
			}
		}

	default:
		if len(msg.String()) == 1 {
			m.inputText += msg.String()
			// Live filter while typing a search
			if m.inputMode == InputSearch {
				m.search = m.inputText
				m.pushFilter()
			}
		}
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	mode, text := m.inputMode, m.inputText
	m.inputMode = InputNone
	m.inputText = ""

	switch mode {
	case InputSearch:
		m.search = text
		m.pushFilter()
		return m, nil
	case InputCreate:
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		return m, m.createIssue(text)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	view := m.ctrl.View()

	header := titleStyle.Render("Issues")
	if m.projectID != "" {
		header += helpStyle.Render("  " + m.projectID)
	}
	if st := m.ctrl.State(); st == controller.StateLoading || st == controller.StateMutating {
		header += spinnerStyle.Render("  ⋯ " + st.String())
	}
	b.WriteString(header + "\n")

	b.WriteString(filterStyle.Render(fmt.Sprintf(
		"status:%s  priority:%s  search:%q  page %d/%d  (%d match)",
		statusFilterCycle[m.statusIdx], priorityFilterCycle[m.priorityIdx],
		m.search, view.Page, view.TotalPages(), view.Total)) + "\n\n")

	if err := m.ctrl.Err(); err != nil {
		b.WriteString(errorStyle.Render("✗ "+err.Error()) + "  " + helpStyle.Render("esc to dismiss") + "\n\n")
	}

	if len(view.Items) == 0 {
		b.WriteString(helpStyle.Render("no issues match") + "\n")
	}

	for i, issue := range view.Items {
		icon := lipgloss.NewStyle().Foreground(statusColors[issue.Status]).Render(statusIcon(issue.Status))
		line := fmt.Sprintf("%s %-10s %-9s %s", icon, issue.ID, issue.Priority, issue.Title)
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.inputMode != InputNone {
		label := "search"
		if m.inputMode == InputCreate {
			label = "new issue"
		}
		b.WriteString("\n" + inputStyle.Render(label+": "+m.inputText+"▌") + "\n")
	} else {
		b.WriteString("\n" + helpStyle.Render(
			"↑/↓ move  ←/→ page  / search  s status  p priority  space advance  c create  x delete  r reload  q quit") + "\n")
	}

	return b.String()
}
