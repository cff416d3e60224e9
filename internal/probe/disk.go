package probe

import (
	"context"
	"strconv"
	"strings"

	"github.com/avigneault/groundwork/internal/execx"
)

// DiskFree reports satisfied when the filesystem holding a path has at
// least MinMB megabytes available. Hosts without df cannot answer, which is
// an indeterminate verdict rather than a failure.
type DiskFree struct {
	Path  string
	MinMB int
}

func newDiskFree(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", false)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = "/"
	}
	minMB, err := IntParam(params, "min_mb", 0)
	if err != nil {
		return nil, err
	}
	return &DiskFree{Path: path, MinMB: minMB}, nil
}

// Evaluate implements Probe.
func (p *DiskFree) Evaluate(ctx context.Context, session *Session) (Status, error) {
	if !session.CommandExists("df") {
		return Indeterminate("df unavailable, cannot check disk space"), nil
	}

	res, err := session.Runner.Run(ctx, execx.Spec{
		Command: "df",
		Args:    []string{"-Pk", p.Path},
	})
	if err != nil {
		return Status{}, err
	}
	if res.TimedOut {
		return Indeterminate("df timed out"), nil
	}
	if res.ExitCode != 0 {
		return Indeterminate("df exited %d: %s", res.ExitCode, execx.PrimaryOutput(res)), nil
	}

	availMB, ok := parseAvailMB(res.Stdout)
	if !ok {
		return Indeterminate("could not parse df output"), nil
	}

	if availMB >= p.MinMB {
		return Satisfied("%d MB available under %s", availMB, p.Path), nil
	}
	return Unsatisfied("only %d MB available under %s, need %d MB", availMB, p.Path, p.MinMB), nil
}

// parseAvailMB extracts the POSIX df "Available" column (KB blocks) from
// the last output line.
func parseAvailMB(out string) (int, bool) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, false
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, false
	}
	availKB, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, false
	}
	return availKB / 1024, true
}
