// Package tui renders live progress for a reconciliation run using
// Bubbletea. The engine stays unaware of this package; cmd forwards
// engine events as messages.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avigneault/groundwork/internal/catalog"
	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/tui/components"
)

// ItemStartMsg marks an item as running.
type ItemStartMsg struct {
	ID   string
	Time time.Time
}

// ItemResultMsg records the terminal outcome for an item.
type ItemResultMsg struct {
	Result model.ItemResult
}

// NoticeMsg surfaces a catalog lint warning in the summary section.
type NoticeMsg struct {
	Message string
}

type tickMsg struct{}

// Model is the Bubbletea model for a single run.
type Model struct {
	planName       string
	mode           string
	items          map[string]components.ItemEntry
	order          []string
	notices        []string
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel seeds the run view with every item of the compiled plan so
// pending items are visible before they start.
func NewModel(plan *catalog.Plan, nonInteractive bool) Model {
	m := Model{
		items:          make(map[string]components.ItemEntry),
		order:          make([]string, 0),
		nonInteractive: nonInteractive,
	}

	if plan != nil {
		m.planName = plan.Name
		m.mode = string(plan.Mode)
		for _, item := range plan.Items {
			m.ensureItem(item.ID)
		}
	}

	return m
}

// Init schedules an initial repaint once the program is running.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// TotalItems returns the number of items tracked by the view.
func (m Model) TotalItems() int { return m.total }

// CompletedItems returns the number of items with a recorded result.
func (m Model) CompletedItems() int { return m.completed }

// IsFinished reports whether the run view reached its end state.
func (m Model) IsFinished() bool { return m.finished }

// Cancelled reports whether the user interrupted the run.
func (m Model) Cancelled() bool { return m.cancelled }

func (m *Model) ensureItem(id string) {
	if id == "" {
		return
	}
	if _, exists := m.items[id]; !exists {
		m.items[id] = components.ItemEntry{ID: id}
		m.order = append(m.order, id)
		m.total++
	}
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}
