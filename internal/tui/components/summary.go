package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering the run summary.
type SummaryData struct {
	Total     int
	Completed int
	Failed    int
	Finished  bool
	Cancelled bool
	Notices   []string
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Items: %d/%d reconciled", s.data.Completed, s.data.Total))
	}
	if s.data.Failed > 0 {
		lines = append(lines, fmt.Sprintf("%d failed or blocked", s.data.Failed))
	}

	if s.data.Cancelled {
		lines = append(lines, "Run cancelled")
	} else if s.data.Finished && s.data.Total > 0 {
		switch {
		case s.data.Completed < s.data.Total:
			lines = append(lines, "Run halted before all items were attempted")
		case s.data.Failed > 0:
			lines = append(lines, "Run finished with failures")
		default:
			lines = append(lines, "Run finished")
		}
	}

	if len(s.data.Notices) > 0 {
		lines = append(lines, "Notices:")
		for _, notice := range s.data.Notices {
			lines = append(lines, fmt.Sprintf("  ! %s", notice))
		}
	}

	return strings.Join(lines, "\n")
}
