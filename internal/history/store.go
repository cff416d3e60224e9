// Package history persists run reports in a local SQLite database so past
// provisioning activity survives the process and can be inspected later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/avigneault/groundwork/internal/model"
)

// ErrNotFound marks lookups for runs the store has never seen.
var ErrNotFound = errors.New("not found")

// Store wraps the history database. A Store is safe for use from one
// process; the database serializes concurrent processes itself.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location under the user's state
// directory.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "groundwork", "history.db")
}

// Open opens the history database at path, creating the file and schema on
// first use. The database is private to the user: runs record hostnames,
// paths, and command output.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("chmod history db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunSummary is one row in the run list.
type RunSummary struct {
	RunID     string
	Catalog   string
	Mode      string
	DryRun    bool
	Status    string
	Halted    bool
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Failed    int
}

// ItemRecord is one stored item result.
type ItemRecord struct {
	ItemID   string
	Outcome  string
	Reason   string
	Message  string
	Error    string
	Duration time.Duration
}

// RunRecord is a stored run with its item results in execution order.
type RunRecord struct {
	RunSummary
	HaltedAfter string
	Items       []ItemRecord
}

// SaveRun stores a finished run and its per-item results.
func (s *Store) SaveRun(ctx context.Context, rep *model.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs(run_id, catalog, mode, dry_run, status, halted, halted_after, started_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rep.RunID, rep.CatalogName, string(rep.Mode), boolToInt(rep.DryRun), string(rep.Status()),
		boolToInt(rep.Halted), rep.HaltedAfter, ts(rep.StartedAt), rep.Duration.Milliseconds())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert run: %w", err)
	}

	for i, res := range rep.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO run_items(run_id, position, item_id, outcome, reason, message, error, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rep.RunID, i, res.ItemID, string(res.Outcome), string(res.Reason), res.Message, errText, res.Duration.Milliseconds())
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert run item %s: %w", res.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

const summaryColumns = `
SELECT r.run_id, r.catalog, r.mode, r.dry_run, r.status, r.halted, r.started_at, r.duration_ms,
	COUNT(i.item_id) AS total,
	COALESCE(SUM(CASE WHEN i.outcome IN ('failed','blocked') THEN 1 ELSE 0 END), 0) AS failed
FROM runs r
LEFT JOIN run_items i ON i.run_id = r.run_id
`

// ListRuns returns the newest runs first, at most limit of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, summaryColumns+`
GROUP BY r.run_id
ORDER BY r.started_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// GetRun returns one stored run with its items, or ErrNotFound. The ID may
// be any unique prefix, so values copied from the list output resolve.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	runID, err := s.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, summaryColumns+`
WHERE r.run_id = ?
GROUP BY r.run_id
`, runID)

	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	record := &RunRecord{RunSummary: summary}
	if err := s.db.QueryRowContext(ctx, `SELECT halted_after FROM runs WHERE run_id = ?`, runID).Scan(&record.HaltedAfter); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT item_id, outcome, reason, message, error, duration_ms
FROM run_items
WHERE run_id = ?
ORDER BY position
`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run items %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ItemRecord
		var durationMS int64
		if err := rows.Scan(&item.ItemID, &item.Outcome, &item.Reason, &item.Message, &item.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.Duration = time.Duration(durationMS) * time.Millisecond
		record.Items = append(record.Items, item)
	}
	return record, rows.Err()
}

// resolveRunID expands a run ID prefix to the full stored ID.
func (s *Store) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID == "" {
		return "", ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs WHERE run_id LIKE ? LIMIT 2`, runID+"%")
	if err != nil {
		return "", fmt.Errorf("resolve run %s: %w", runID, err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve run %s: %w", runID, err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s: %w", runID, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous, use more characters", runID)
	}
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. Item rows go with their run through the cascade.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM runs WHERE run_id NOT IN (
	SELECT run_id FROM runs ORDER BY started_at DESC LIMIT ?
)
`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (RunSummary, error) {
	var summary RunSummary
	var dryRun, halted int
	var startedAt string
	var durationMS int64

	err := row.Scan(&summary.RunID, &summary.Catalog, &summary.Mode, &dryRun, &summary.Status,
		&halted, &startedAt, &durationMS, &summary.Total, &summary.Failed)
	if err != nil {
		return RunSummary{}, err
	}

	summary.DryRun = dryRun != 0
	summary.Halted = halted != 0
	summary.Duration = time.Duration(durationMS) * time.Millisecond
	if summary.StartedAt, err = parseTS(startedAt); err != nil {
		return RunSummary{}, fmt.Errorf("parse started_at: %w", err)
	}
	return summary, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
