package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/tui/components"
)

func TestViewRendersBasicLayout(t *testing.T) {
	m := NewModel(testPlan("tools", "sshd_config"), false)
	m.items["tools"] = components.ItemEntry{
		ID:   "tools",
		Done: true,
		Result: model.ItemResult{
			ItemID:   "tools",
			Outcome:  model.OutcomeApplied,
			Message:  "installed jq",
			Duration: 340 * time.Millisecond,
		},
	}
	m.items["sshd_config"] = components.ItemEntry{ID: "sshd_config", Running: true}
	m.completed = 1

	view := m.View()
	require.Contains(t, view, "groundwork • workstation (provision)")
	require.Contains(t, view, "tools")
	require.Contains(t, view, "sshd_config")
	require.Contains(t, view, "installed jq")
	require.Contains(t, view, "340ms")
	require.Contains(t, view, "1/2")
}

func TestViewShowsSummaryWhenFinished(t *testing.T) {
	m := NewModel(testPlan("tools", "motd", "sshd_config", "nix"), false)
	m.finished = true
	m.completed = 4

	view := m.View()
	require.Contains(t, view, "Items: 4/4 reconciled")
	require.Contains(t, view, "Run finished")
}

func TestViewShowsNotices(t *testing.T) {
	m := NewModel(testPlan("tools"), false)
	m.notices = append(m.notices, `provision item "motd" has no teardown counterpart`)

	view := m.View()
	require.Contains(t, view, "Notices:")
	require.Contains(t, view, "no teardown counterpart")
}

func TestViewTitleFallsBackWithoutPlanName(t *testing.T) {
	m := NewModel(nil, false)

	require.Contains(t, m.View(), "groundwork • run")
}

func TestOutcomeIcon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		outcome  model.Outcome
		expected string
	}{
		{"satisfied shows checkmark", model.OutcomeSatisfied, "✓"},
		{"applied shows checkmark", model.OutcomeApplied, "✓"},
		{"would_apply shows cycle", model.OutcomeWouldApply, "↻"},
		{"warning shows bang", model.OutcomeWarning, "!"},
		{"skipped shows circle-slash", model.OutcomeSkipped, "⊘"},
		{"blocked shows circle-slash", model.OutcomeBlocked, "⊘"},
		{"failed shows cross", model.OutcomeFailed, "✗"},
		{"unknown shows ellipsis", model.Outcome("mystery"), "…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Contains(t, OutcomeIcon(tt.outcome), tt.expected)
		})
	}
}

func TestEntryIconReflectsDisplayState(t *testing.T) {
	t.Parallel()

	require.Contains(t, entryIcon(components.ItemEntry{Running: true}), "⏳")
	require.Contains(t, entryIcon(components.ItemEntry{}), "…")
	require.Contains(t, entryIcon(components.ItemEntry{Done: true, Result: model.ItemResult{Outcome: model.OutcomeFailed}}), "✗")
}
