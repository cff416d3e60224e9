package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avigneault/groundwork/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database path (defaults to the user state dir)")

	cmd.AddCommand(newHistoryListCmd(&dbPath))
	cmd.AddCommand(newHistoryShowCmd(&dbPath))
	cmd.AddCommand(newHistoryPruneCmd(&dbPath))

	return cmd
}

func openHistory(ctx context.Context, dbPath string) (*history.Store, error) {
	if dbPath == "" {
		dbPath = history.DefaultPath()
	}
	return history.Open(ctx, dbPath)
}

func newHistoryListCmd(dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openHistory(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}

			fmt.Fprintf(out, "%-20s %-10s %-20s %-10s %-22s %s\n", "Started", "Run", "Catalog", "Mode", "Status", "Items")
			fmt.Fprintln(out, strings.Repeat("-", 92))
			for _, run := range runs {
				status := run.Status
				if run.DryRun {
					status += " (dry-run)"
				}
				items := fmt.Sprintf("%d", run.Total)
				if run.Failed > 0 {
					items = fmt.Sprintf("%d (%d failed)", run.Total, run.Failed)
				}
				fmt.Fprintf(out, "%-20s %-10s %-20s %-10s %-22s %s\n",
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					shortRunID(run.RunID),
					truncateString(run.Catalog, 20),
					run.Mode,
					status,
					items,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func newHistoryShowCmd(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run with its item results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openHistory(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", run.RunID)
			fmt.Fprintf(out, "Catalog:  %s\n", run.Catalog)
			mode := run.Mode
			if run.DryRun {
				mode += " (dry-run)"
			}
			fmt.Fprintf(out, "Mode:     %s\n", mode)
			fmt.Fprintf(out, "Status:   %s\n", run.Status)
			fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Duration: %.2fs\n", run.Duration.Seconds())
			if run.Halted {
				fmt.Fprintf(out, "Halted after critical item %q\n", run.HaltedAfter)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-28s %-22s %-9s %s\n", "Item", "Outcome", "Duration", "Message")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, item := range run.Items {
				outcome := item.Outcome
				if item.Reason != "" {
					outcome = fmt.Sprintf("%s (%s)", item.Outcome, item.Reason)
				}
				message := item.Message
				if message == "" {
					message = item.Error
				}
				fmt.Fprintf(out, "%-28s %-22s %-9s %s\n",
					truncateString(item.ItemID, 28),
					truncateString(outcome, 22),
					fmt.Sprintf("%.2fs", item.Duration.Seconds()),
					truncateString(message, 40),
				)
			}
			return nil
		},
	}

	return cmd
}

func newHistoryPruneCmd(dbPath *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openHistory(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			deleted, err := store.Prune(ctx, keep)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s), kept the %d most recent.\n", deleted, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "Number of recent runs to keep")

	return cmd
}

func shortRunID(runID string) string {
	if len(runID) <= 8 {
		return runID
	}
	return runID[:8]
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
