package probe

import (
	"context"
	"errors"

	"github.com/avigneault/groundwork/internal/svc"
)

// ServiceEnabled reports satisfied when a service is enabled at boot, and
// optionally also running.
type ServiceEnabled struct {
	Service string
	Running bool
}

func newServiceEnabled(params map[string]any) (Probe, error) {
	service, err := StringParam(params, "service", true)
	if err != nil {
		return nil, err
	}
	running, err := BoolParam(params, "running", false)
	if err != nil {
		return nil, err
	}
	return &ServiceEnabled{Service: service, Running: running}, nil
}

// Evaluate implements Probe.
func (p *ServiceEnabled) Evaluate(ctx context.Context, session *Session) (Status, error) {
	manager, err := svc.ForInit(session.Facts.InitSystem, session.Runner)
	if err != nil {
		return Indeterminate("cannot manage services: %v", err), nil
	}

	enabled, err := manager.IsEnabled(ctx, p.Service)
	if err != nil {
		if errors.Is(err, svc.ErrTimeout) {
			return Indeterminate("service query for %q timed out", p.Service), nil
		}
		return Status{}, err
	}
	if !enabled {
		return Unsatisfied("service %q not enabled at boot", p.Service), nil
	}

	if p.Running {
		active, err := manager.IsActive(ctx, p.Service)
		if err != nil {
			if errors.Is(err, svc.ErrTimeout) {
				return Indeterminate("service query for %q timed out", p.Service), nil
			}
			return Status{}, err
		}
		if !active {
			return Unsatisfied("service %q enabled but not running", p.Service), nil
		}
		return Satisfied("service %q enabled and running", p.Service), nil
	}

	return Satisfied("service %q enabled", p.Service), nil
}

// ServiceDisabled reports satisfied when a service is neither enabled nor
// running.
type ServiceDisabled struct {
	Service string
}

func newServiceDisabled(params map[string]any) (Probe, error) {
	service, err := StringParam(params, "service", true)
	if err != nil {
		return nil, err
	}
	return &ServiceDisabled{Service: service}, nil
}

// Evaluate implements Probe.
func (p *ServiceDisabled) Evaluate(ctx context.Context, session *Session) (Status, error) {
	manager, err := svc.ForInit(session.Facts.InitSystem, session.Runner)
	if err != nil {
		return Indeterminate("cannot manage services: %v", err), nil
	}

	enabled, err := manager.IsEnabled(ctx, p.Service)
	if err != nil {
		if errors.Is(err, svc.ErrTimeout) {
			return Indeterminate("service query for %q timed out", p.Service), nil
		}
		return Status{}, err
	}
	if enabled {
		return Unsatisfied("service %q still enabled at boot", p.Service), nil
	}

	active, err := manager.IsActive(ctx, p.Service)
	if err != nil {
		if errors.Is(err, svc.ErrTimeout) {
			return Indeterminate("service query for %q timed out", p.Service), nil
		}
		return Status{}, err
	}
	if active {
		return Unsatisfied("service %q still running", p.Service), nil
	}

	return Satisfied("service %q disabled and stopped", p.Service), nil
}
