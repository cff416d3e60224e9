// Package svc abstracts init-system service management behind one Manager
// interface with OpenRC, systemd, and SysV implementations. Probes use the
// query methods; actions use the mutating ones.
package svc

import (
	"context"
	"errors"
	"fmt"

	"github.com/avigneault/groundwork/internal/execx"
)

// ErrTimeout marks a service command that exceeded the operation budget.
// Callers map it to an indeterminate or timeout outcome.
var ErrTimeout = errors.New("service command timed out")

// Manager drives one init system.
type Manager interface {
	Name() string
	IsEnabled(ctx context.Context, service string) (bool, error)
	IsActive(ctx context.Context, service string) (bool, error)
	Enable(ctx context.Context, service string) error
	Disable(ctx context.Context, service string) error
	Start(ctx context.Context, service string) error
	Stop(ctx context.Context, service string) error
}

// ForInit returns the Manager for the detected init system.
func ForInit(initSystem string, runner execx.Exec) (Manager, error) {
	switch initSystem {
	case "openrc":
		return &openRC{runner: runner}, nil
	case "systemd":
		return &systemd{runner: runner}, nil
	case "sysvinit":
		return &sysvinit{runner: runner}, nil
	default:
		return nil, fmt.Errorf("unsupported init system: %q", initSystem)
	}
}

// run executes a service command where only exit 0 counts as success.
func run(ctx context.Context, runner execx.Exec, spec execx.Spec) error {
	res, err := runner.Run(ctx, spec)
	if err != nil {
		return err
	}
	if res.TimedOut {
		return fmt.Errorf("%s %v: %w", spec.Command, spec.Args, ErrTimeout)
	}
	if res.ExitCode != 0 {
		out := execx.PrimaryOutput(res)
		if out == "" {
			out = fmt.Sprintf("exit %d", res.ExitCode)
		}
		return fmt.Errorf("%s %v failed: %s", spec.Command, spec.Args, out)
	}
	return nil
}

// query executes a service command whose exit status answers a yes/no
// question.
func query(ctx context.Context, runner execx.Exec, spec execx.Spec) (bool, execx.Result, error) {
	res, err := runner.Run(ctx, spec)
	if err != nil {
		return false, res, err
	}
	if res.TimedOut {
		return false, res, fmt.Errorf("%s %v: %w", spec.Command, spec.Args, ErrTimeout)
	}
	return res.ExitCode == 0, res, nil
}
