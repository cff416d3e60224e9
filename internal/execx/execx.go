// Package execx runs external commands for probes and actions. The contract
// differs from os/exec in two ways that matter to reconciliation: a non-zero
// exit status is result data, not an error, and timeouts are enforced inside
// the runner with a termination grace window. The only error a run can
// produce is a spawn failure (missing binary, permission, bad workdir) or a
// canceled caller context.
//
// Commands run in their own process group. On timeout the group receives
// SIGTERM, then SIGKILL once the grace window lapses, so shell children do
// not outlive the run. Targets POSIX hosts.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/avigneault/groundwork/internal/logger"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// TimeoutExitCode is the conventional exit status reported for a run that
// was killed by its timeout, matching coreutils timeout(1).
const TimeoutExitCode = 124

// DefaultGrace is the SIGTERM to SIGKILL window applied when a Spec does not
// set one.
const DefaultGrace = 2 * time.Second

// Spec describes a single command invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
	Grace   time.Duration
}

// Result captures everything a probe or action needs to interpret a run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Exec runs command specs. *Runner is the real implementation; tests
// substitute scripted fakes.
type Exec interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// Runner executes Specs. The zero value is usable; a logger adds per-run
// debug entries.
type Runner struct {
	log   *logger.Logger
	grace time.Duration
}

// New returns a Runner with the default termination grace window.
func New(log *logger.Logger) *Runner {
	return &Runner{log: log, grace: DefaultGrace}
}

// NewWithGrace returns a Runner with a custom termination grace window.
func NewWithGrace(log *logger.Logger, grace time.Duration) *Runner {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{log: log, grace: grace}
}

// Run executes the spec and blocks until the command exits or the timeout
// escalation finishes. The returned error is non-nil only for spawn failures
// and caller-context cancellation; exit codes and timeouts arrive in Result.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	var res Result

	if strings.TrimSpace(spec.Command) == "" {
		return res, gwerrors.NewSpawnError("", errors.New("empty command"))
	}

	grace := spec.Grace
	if grace <= 0 {
		grace = r.grace
	}
	if grace <= 0 {
		grace = DefaultGrace
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group, so the whole command tree can be signaled.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		}
		return nil
	}
	cmd.WaitDelay = grace

	started := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(started)
	res.Stdout = strings.TrimSpace(stdout.String())
	res.Stderr = strings.TrimSpace(stderr.String())

	// A deadline on the caller context carries the same meaning as
	// Spec.Timeout: the operation's time budget ran out.
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = TimeoutExitCode
		r.sweepGroup(cmd)
		r.logRun(spec, res)
		if spec.Timeout > 0 {
			r.log.Warn(fmt.Sprintf("command %q exceeded its %s timeout", spec.Command, spec.Timeout))
		}
		return res, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		r.sweepGroup(cmd)
		return res, ctxErr
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.logRun(spec, res)
			return res, nil
		}
		return res, gwerrors.NewSpawnError(spec.Command, runErr)
	}

	res.ExitCode = 0
	r.logRun(spec, res)
	return res, nil
}

// sweepGroup force-kills any stragglers left in the command's process group
// after a timeout or cancellation. Errors are ignored; the group usually no
// longer exists.
func (r *Runner) sweepGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func (r *Runner) logRun(spec Spec, res Result) {
	if r.log == nil {
		return
	}
	r.log.WithFields(map[string]any{
		"command":   spec.Command,
		"args":      strings.Join(spec.Args, " "),
		"exit_code": res.ExitCode,
		"timed_out": res.TimedOut,
		"duration":  res.Duration.String(),
	}).Debug("command finished")
}

// PrimaryOutput returns stderr if present, otherwise stdout. Failure detail
// usually lands on stderr.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
