package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/avigneault/groundwork/internal/model"
)

// WriteJSON writes the machine-readable report as indented JSON.
func WriteJSON(w io.Writer, rep *model.RunReport) error {
	type jsonItem struct {
		ItemID          string  `json:"item_id"`
		Name            string  `json:"name,omitempty"`
		Outcome         string  `json:"outcome"`
		Reason          string  `json:"reason,omitempty"`
		InitialState    string  `json:"initial_state"`
		FinalState      string  `json:"final_state"`
		Message         string  `json:"message,omitempty"`
		Hint            string  `json:"hint,omitempty"`
		Diff            string  `json:"diff,omitempty"`
		Error           string  `json:"error,omitempty"`
		DurationSeconds float64 `json:"duration_seconds"`
		Timestamp       string  `json:"timestamp"`
	}

	type jsonSummary struct {
		Total      int `json:"total"`
		Satisfied  int `json:"satisfied"`
		Applied    int `json:"applied"`
		WouldApply int `json:"would_apply"`
		Warnings   int `json:"warnings"`
		Skipped    int `json:"skipped"`
		Blocked    int `json:"blocked"`
		Failed     int `json:"failed"`
	}

	type jsonReport struct {
		RunID           string      `json:"run_id"`
		Catalog         string      `json:"catalog"`
		Mode            string      `json:"mode"`
		DryRun          bool        `json:"dry_run"`
		Status          string      `json:"status"`
		StartedAt       string      `json:"started_at"`
		DurationSeconds float64     `json:"duration_seconds"`
		Halted          bool        `json:"halted,omitempty"`
		HaltedAfter     string      `json:"halted_after,omitempty"`
		Summary         jsonSummary `json:"summary"`
		Items           []jsonItem  `json:"items"`
	}

	c := rep.Counts()
	out := jsonReport{
		RunID:           rep.RunID,
		Catalog:         rep.CatalogName,
		Mode:            string(rep.Mode),
		DryRun:          rep.DryRun,
		Status:          string(rep.Status()),
		StartedAt:       rep.StartedAt.Format(time.RFC3339),
		DurationSeconds: rep.Duration.Seconds(),
		Halted:          rep.Halted,
		HaltedAfter:     rep.HaltedAfter,
		Summary: jsonSummary{
			Total:      c.Total,
			Satisfied:  c.Satisfied,
			Applied:    c.Applied,
			WouldApply: c.WouldApply,
			Warnings:   c.Warnings,
			Skipped:    c.Skipped,
			Blocked:    c.Blocked,
			Failed:     c.Failed,
		},
		Items: make([]jsonItem, 0, len(rep.Results)),
	}

	for _, res := range rep.Results {
		item := jsonItem{
			ItemID:          res.ItemID,
			Name:            res.Name,
			Outcome:         string(res.Outcome),
			Reason:          string(res.Reason),
			InitialState:    string(res.InitialState),
			FinalState:      string(res.FinalState),
			Message:         res.Message,
			Hint:            res.Hint,
			Diff:            res.Diff,
			DurationSeconds: res.Duration.Seconds(),
			Timestamp:       res.Timestamp.Format(time.RFC3339),
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		out.Items = append(out.Items, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
