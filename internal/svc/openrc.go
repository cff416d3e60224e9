package svc

import (
	"context"
	"strings"

	"github.com/avigneault/groundwork/internal/execx"
)

// openRC manages services through rc-update and rc-service, the Alpine
// default.
type openRC struct {
	runner execx.Exec
}

func (m *openRC) Name() string { return "openrc" }

// IsEnabled checks membership in the default runlevel via rc-update show.
func (m *openRC) IsEnabled(ctx context.Context, service string) (bool, error) {
	ok, res, err := query(ctx, m.runner, execx.Spec{
		Command: "rc-update",
		Args:    []string{"show", "default"},
	})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	// Output lines look like "  sshd | default".
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == service {
			return true, nil
		}
	}
	return false, nil
}

func (m *openRC) IsActive(ctx context.Context, service string) (bool, error) {
	ok, _, err := query(ctx, m.runner, execx.Spec{
		Command: "rc-service",
		Args:    []string{service, "status"},
	})
	return ok, err
}

func (m *openRC) Enable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "rc-update",
		Args:    []string{"add", service, "default"},
	})
}

func (m *openRC) Disable(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "rc-update",
		Args:    []string{"del", service, "default"},
	})
}

func (m *openRC) Start(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "rc-service",
		Args:    []string{service, "start"},
	})
}

func (m *openRC) Stop(ctx context.Context, service string) error {
	return run(ctx, m.runner, execx.Spec{
		Command: "rc-service",
		Args:    []string{service, "stop"},
	})
}
