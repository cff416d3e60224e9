package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/avigneault/groundwork/internal/execx"
)

// CommandExists reports satisfied when a binary resolves on PATH.
type CommandExists struct {
	Command string
}

func newCommandExists(params map[string]any) (Probe, error) {
	command, err := StringParam(params, "command", true)
	if err != nil {
		return nil, err
	}
	return &CommandExists{Command: command}, nil
}

// Evaluate implements Probe.
func (p *CommandExists) Evaluate(_ context.Context, session *Session) (Status, error) {
	if session.CommandExists(p.Command) {
		return Satisfied("command %q found on PATH", p.Command), nil
	}
	return Unsatisfied("command %q not found on PATH", p.Command), nil
}

// CommandSucceeds runs a shell check and reports satisfied on exit 0. Items
// built from the command kind use it as their convergence test.
type CommandSucceeds struct {
	Command string
	Shell   string
	WorkDir string
	Env     []string
}

func newCommandSucceeds(params map[string]any) (Probe, error) {
	command, err := StringParam(params, "command", true)
	if err != nil {
		return nil, err
	}
	shell, err := StringParam(params, "shell", false)
	if err != nil {
		return nil, err
	}
	workDir, err := StringParam(params, "workdir", false)
	if err != nil {
		return nil, err
	}
	env, err := StringSliceParam(params, "env", false)
	if err != nil {
		return nil, err
	}
	return &CommandSucceeds{Command: command, Shell: shell, WorkDir: workDir, Env: env}, nil
}

// Evaluate implements Probe.
func (p *CommandSucceeds) Evaluate(ctx context.Context, session *Session) (Status, error) {
	shell := ResolveShell(p.Shell)

	res, err := session.Runner.Run(ctx, execx.Spec{
		Command: shell,
		Args:    []string{"-c", p.Command},
		Dir:     p.WorkDir,
		Env:     p.Env,
	})
	if err != nil {
		return Status{}, err
	}

	if res.TimedOut {
		return Indeterminate("check %q timed out", p.Command), nil
	}
	if res.ExitCode == 0 {
		return Satisfied("check %q passed", p.Command), nil
	}

	msg := fmt.Sprintf("check %q exited %d", p.Command, res.ExitCode)
	if out := execx.PrimaryOutput(res); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, firstLine(out))
	}
	return Unsatisfied("%s", msg), nil
}

// ResolveShell picks the shell for script fragments: an explicit choice
// first, then bash, then sh.
func ResolveShell(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if path, err := exec.LookPath("bash"); err == nil {
		return path
	}
	return "sh"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
