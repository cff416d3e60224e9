package action

import (
	"context"
	"fmt"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/probe"
)

// RunCommand executes an arbitrary shell fragment. Items of the command
// kind pair it with a command_succeeds probe; without one the engine would
// have no way to tell whether the command needs to run again.
type RunCommand struct {
	Command string
	Shell   string
	WorkDir string
	Env     []string
}

func newRunCommand(params map[string]any) (Action, error) {
	command, err := probe.StringParam(params, "command", true)
	if err != nil {
		return nil, err
	}
	shell, err := probe.StringParam(params, "shell", false)
	if err != nil {
		return nil, err
	}
	workDir, err := probe.StringParam(params, "workdir", false)
	if err != nil {
		return nil, err
	}
	env, err := probe.StringSliceParam(params, "env", false)
	if err != nil {
		return nil, err
	}
	return &RunCommand{Command: command, Shell: shell, WorkDir: workDir, Env: env}, nil
}

// Apply implements Action.
func (a *RunCommand) Apply(ctx context.Context, session *probe.Session) (Result, error) {
	shell := probe.ResolveShell(a.Shell)

	res, err := session.Runner.Run(ctx, execx.Spec{
		Command: shell,
		Args:    []string{"-c", a.Command},
		Dir:     a.WorkDir,
		Env:     a.Env,
	})
	if err != nil {
		return Result{}, err
	}

	if res.TimedOut {
		return Result{}, fmt.Errorf("command %q timed out", a.Command)
	}
	if res.ExitCode != 0 {
		out := execx.PrimaryOutput(res)
		if out == "" {
			return Result{}, fmt.Errorf("command %q exited %d", a.Command, res.ExitCode)
		}
		return Result{}, fmt.Errorf("command %q exited %d: %s", a.Command, res.ExitCode, out)
	}
	return Result{Message: fmt.Sprintf("command %q completed", a.Command)}, nil
}
