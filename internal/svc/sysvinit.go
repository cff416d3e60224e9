package svc

import (
	"context"
	"fmt"

	"github.com/avigneault/groundwork/internal/execx"
)

// sysvinit manages services through the service wrapper and update-rc.d.
type sysvinit struct {
	runner execx.Exec
}

func (m *sysvinit) Name() string { return "sysvinit" }

// IsEnabled looks for an S-prefixed rc symlink, the only portable signal
// SysV offers.
func (m *sysvinit) IsEnabled(ctx context.Context, service string) (bool, error) {
	ok, _, err := query(ctx, m.runner, execx.Spec{
		Command: "sh",
		Args:    []string{"-c", fmt.Sprintf("ls /etc/rc*.d/S*%s 2>/dev/null | grep -q .", service)},
	})
	return ok, err
}

func (m *sysvinit) IsActive(ctx context.Context, service string) (bool, error) {
	ok, _, err := query(ctx, m.runner, execx.Spec{
		Command: "service",
		Args:    []string{service, "status"},
	})
	return ok, err
}

func (m *sysvinit) Enable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "update-rc.d",
		Args:    []string{service, "defaults"},
	})
}

func (m *sysvinit) Disable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "update-rc.d",
		Args:    []string{"-f", service, "remove"},
	})
}

func (m *sysvinit) Start(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "service",
		Args:    []string{service, "start"},
	})
}

func (m *sysvinit) Stop(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "service",
		Args:    []string{service, "stop"},
	})
}
