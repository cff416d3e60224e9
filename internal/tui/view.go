package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/tui/components"
)

// View renders the current run state.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("groundwork • %s", m.title())))

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	entries := components.NewItemList(m.order, m.items).Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Items"))
		sections = append(sections, renderItemEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Failed:    m.failedCount(),
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Notices:   m.notices,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderItemEntries(entries []components.ItemEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		line := fmt.Sprintf("  %s %s", entryIcon(entry), entry.ID)
		if entry.Done {
			if msg := strings.TrimSpace(entry.Result.Message); msg != "" {
				line = fmt.Sprintf("%s - %s", line, msg)
			}
			if entry.Result.Duration > 0 {
				line = fmt.Sprintf("%s (%s)", line, entry.Result.Duration.Truncate(10*time.Millisecond))
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	name := m.planName
	if strings.TrimSpace(name) == "" {
		name = "run"
	}
	if m.mode == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, m.mode)
}

func (m Model) failedCount() int {
	n := 0
	for _, entry := range m.items {
		if !entry.Done {
			continue
		}
		if entry.Result.Outcome == model.OutcomeFailed || entry.Result.Outcome == model.OutcomeBlocked {
			n++
		}
	}
	return n
}

func entryIcon(entry components.ItemEntry) string {
	if entry.Running {
		return runningStyle.Render("⏳")
	}
	if !entry.Done {
		return pendingStyle.Render("…")
	}
	return OutcomeIcon(entry.Result.Outcome)
}

// OutcomeIcon returns the styled glyph for a terminal outcome.
func OutcomeIcon(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeSatisfied, model.OutcomeApplied:
		return successStyle.Render("✓")
	case model.OutcomeWouldApply:
		return pendingStyle.Render("↻")
	case model.OutcomeWarning:
		return warningStyle.Render("!")
	case model.OutcomeSkipped:
		return skippedStyle.Render("⊘")
	case model.OutcomeBlocked:
		return failureStyle.Render("⊘")
	case model.OutcomeFailed:
		return failureStyle.Render("✗")
	default:
		return pendingStyle.Render("…")
	}
}
