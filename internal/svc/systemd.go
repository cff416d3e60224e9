package svc

import (
	"context"

	"github.com/avigneault/groundwork/internal/execx"
)

// systemd manages services through systemctl.
type systemd struct {
	runner execx.Exec
}

func (m *systemd) Name() string { return "systemd" }

func (m *systemd) IsEnabled(ctx context.Context, service string) (bool, error) {
	ok, _, err := query(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"is-enabled", "--quiet", service},
	})
	return ok, err
}

func (m *systemd) IsActive(ctx context.Context, service string) (bool, error) {
	ok, _, err := query(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"is-active", "--quiet", service},
	})
	return ok, err
}

func (m *systemd) Enable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"enable", service},
	})
}

func (m *systemd) Disable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"disable", service},
	})
}

func (m *systemd) Start(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"start", service},
	})
}

func (m *systemd) Stop(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "systemctl",
		Args:    []string{"stop", service},
	})
}
