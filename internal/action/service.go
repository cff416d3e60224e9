package action

import (
	"context"
	"fmt"

	"github.com/avigneault/groundwork/internal/probe"
	"github.com/avigneault/groundwork/internal/svc"
)

// ServiceEnable enables a service at boot and optionally starts it now.
type ServiceEnable struct {
	Service string
	Start   bool
}

func newServiceEnable(params map[string]any) (Action, error) {
	service, err := probe.StringParam(params, "service", true)
	if err != nil {
		return nil, err
	}
	start, err := probe.BoolParam(params, "start", false)
	if err != nil {
		return nil, err
	}
	return &ServiceEnable{Service: service, Start: start}, nil
}

// Apply implements Action.
func (a *ServiceEnable) Apply(ctx context.Context, session *probe.Session) (Result, error) {
	manager, err := svc.ForInit(session.Facts.InitSystem, session.Runner)
	if err != nil {
		return Result{}, err
	}

	if err := manager.Enable(ctx, a.Service); err != nil {
		return Result{}, err
	}
	if !a.Start {
		return Result{Message: fmt.Sprintf("enabled %s", a.Service)}, nil
	}

	active, err := manager.IsActive(ctx, a.Service)
	if err != nil {
		return Result{}, err
	}
	if !active {
		if err := manager.Start(ctx, a.Service); err != nil {
			return Result{}, err
		}
	}
	return Result{Message: fmt.Sprintf("enabled and started %s", a.Service)}, nil
}

// ServiceDisable disables a service at boot and optionally stops it now.
type ServiceDisable struct {
	Service string
	Stop    bool
}

func newServiceDisable(params map[string]any) (Action, error) {
	service, err := probe.StringParam(params, "service", true)
	if err != nil {
		return nil, err
	}
	stop, err := probe.BoolParam(params, "stop", true)
	if err != nil {
		return nil, err
	}
	return &ServiceDisable{Service: service, Stop: stop}, nil
}

// Apply implements Action.
func (a *ServiceDisable) Apply(ctx context.Context, session *probe.Session) (Result, error) {
	manager, err := svc.ForInit(session.Facts.InitSystem, session.Runner)
	if err != nil {
		return Result{}, err
	}

	if err := manager.Disable(ctx, a.Service); err != nil {
		return Result{}, err
	}
	if !a.Stop {
		return Result{Message: fmt.Sprintf("disabled %s", a.Service)}, nil
	}

	active, err := manager.IsActive(ctx, a.Service)
	if err != nil {
		return Result{}, err
	}
	if active {
		if err := manager.Stop(ctx, a.Service); err != nil {
			return Result{}, err
		}
	}
	return Result{Message: fmt.Sprintf("disabled and stopped %s", a.Service)}, nil
}
