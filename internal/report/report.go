// Package report renders run reports for terminals and machines.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/avigneault/groundwork/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Render writes the human-readable report. Verbose appends per-item diff
// and error sections after the table.
func Render(w io.Writer, rep *model.RunReport, verbose bool) {
	title := fmt.Sprintf("%s run: %s", rep.Mode, rep.CatalogName)
	if rep.DryRun {
		title += " (dry-run)"
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%-28s %-22s %-9s %s\n", "Item", "Outcome", "Duration", "Message")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, res := range rep.Results {
		fmt.Fprintf(w, "%-28s %-22s %-9s %s\n",
			truncate(res.ItemID, 28),
			fmt.Sprintf("%s %s", outcomeSymbol(res.Outcome), res.Outcome),
			fmt.Sprintf("%.2fs", res.Duration.Seconds()),
			truncate(res.Message, 40),
		)
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))

	c := rep.Counts()
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Total:         %d\n", c.Total)
	fmt.Fprintf(w, "  ✔ Satisfied:   %d\n", c.Satisfied)
	fmt.Fprintf(w, "  ✔ Applied:     %d\n", c.Applied)
	fmt.Fprintf(w, "  ⚠ Would apply: %d\n", c.WouldApply)
	fmt.Fprintf(w, "  ? Warnings:    %d\n", c.Warnings)
	fmt.Fprintf(w, "  - Skipped:     %d\n", c.Skipped)
	fmt.Fprintf(w, "  🚫 Blocked:    %d\n", c.Blocked)
	fmt.Fprintf(w, "  ✖ Failed:      %d\n", c.Failed)
	fmt.Fprintf(w, "  Duration:      %s\n", rep.Duration.Round(time.Millisecond))

	if rep.Halted {
		fmt.Fprintln(w)
		fmt.Fprintln(w, failureStyle.Render(fmt.Sprintf(
			"Run halted after critical item %q; later items were not attempted.", rep.HaltedAfter)))
	}

	if hints := collectHints(rep); len(hints) > 0 {
		fmt.Fprintln(w, "\nHints:")
		for _, h := range hints {
			fmt.Fprintf(w, "  %s: %s\n", h.itemID, h.hint)
		}
	}

	if verbose {
		renderDetails(w, rep)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, verdictLine(rep))
}

func outcomeSymbol(o model.Outcome) string {
	switch o {
	case model.OutcomeSatisfied, model.OutcomeApplied:
		return "✔"
	case model.OutcomeWouldApply:
		return "⚠"
	case model.OutcomeWarning:
		return "?"
	case model.OutcomeSkipped:
		return "-"
	case model.OutcomeBlocked:
		return "🚫"
	case model.OutcomeFailed:
		return "✖"
	default:
		return "?"
	}
}

func verdictLine(rep *model.RunReport) string {
	switch rep.Status() {
	case model.RunFailed:
		c := rep.Counts()
		return failureStyle.Render(fmt.Sprintf(
			"❌ %d of %d items failed or were blocked", c.Failed+c.Blocked, c.Total))
	case model.RunWarnings:
		return warnStyle.Render("⚠ Completed with warnings; review the indeterminate items above")
	}

	if rep.NeedsApply() {
		cmd := "provision"
		if rep.Mode == model.ModeTeardown {
			cmd = "teardown"
		}
		return warnStyle.Render(fmt.Sprintf("❌ Changes needed - run 'groundwork %s' to apply them", cmd))
	}
	return successStyle.Render("✅ All items are in their desired state")
}

type itemHint struct {
	itemID string
	hint   string
}

// collectHints gathers remediation hints from items that ended badly.
// Hints on healthy items stay quiet.
func collectHints(rep *model.RunReport) []itemHint {
	var hints []itemHint
	for _, res := range rep.Results {
		if res.Hint == "" {
			continue
		}
		switch res.Outcome {
		case model.OutcomeFailed, model.OutcomeBlocked, model.OutcomeWarning:
			hints = append(hints, itemHint{itemID: res.ItemID, hint: res.Hint})
		}
	}
	return hints
}

func renderDetails(w io.Writer, rep *model.RunReport) {
	wrote := false
	header := func() {
		if !wrote {
			fmt.Fprintln(w, "\nDetails:")
			fmt.Fprintln(w, strings.Repeat("=", 80))
			wrote = true
		}
	}

	for _, res := range rep.Results {
		if res.Diff == "" && res.Err == nil {
			continue
		}
		header()
		fmt.Fprintf(w, "\n--- %s ---\n", res.ItemID)
		if res.Diff != "" {
			fmt.Fprintln(w, res.Diff)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", res.Err)
		}
	}
}

// ExitCode maps a report to the process exit status: 0 for success with or
// without warnings, 1 when items failed or a verify run found drift.
// Parse and validation failures never reach a report; callers map those to
// their own exit status.
func ExitCode(rep *model.RunReport) int {
	if rep.Status() == model.RunFailed {
		return 1
	}
	if rep.Mode == model.ModeVerify && rep.NeedsApply() {
		return 1
	}
	return 0
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
