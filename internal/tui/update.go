package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil

	case ItemStartMsg:
		m.ensureItem(msg.ID)
		entry := m.items[msg.ID]
		entry.Running = true
		m.items[msg.ID] = entry
		return m, nil

	case ItemResultMsg:
		id := msg.Result.ItemID
		if id == "" {
			return m, nil
		}
		m.ensureItem(id)

		entry := m.items[id]
		alreadyDone := entry.Done
		entry.Running = false
		entry.Done = true
		entry.Result = msg.Result
		m.items[id] = entry

		if !alreadyDone {
			m.completed++
			m.markFinishedIfComplete()
		}
		if msg.Result.Failed() && msg.Result.Critical {
			// A critical failure halts the run; later items never report.
			m.finished = true
		}
		return m, nil

	case NoticeMsg:
		if msg.Message != "" {
			m.notices = append(m.notices, msg.Message)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}

	case tea.QuitMsg:
		m.finished = true
	}

	return m, nil
}
