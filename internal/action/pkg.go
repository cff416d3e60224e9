package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/probe"
)

// PackageInstall installs packages through the host's package manager.
type PackageInstall struct {
	Packages []string
	Manager  string
}

func newPackageInstall(params map[string]any) (Action, error) {
	packages, err := probe.StringSliceParam(params, "packages", true)
	if err != nil {
		return nil, err
	}
	manager, err := probe.StringParam(params, "manager", false)
	if err != nil {
		return nil, err
	}
	return &PackageInstall{Packages: packages, Manager: manager}, nil
}

// Apply implements Action.
func (a *PackageInstall) Apply(ctx context.Context, session *probe.Session) (Result, error) {
	mgr, spec, err := managerSpec(session, a.Manager, "install", a.Packages)
	if err != nil {
		return Result{}, err
	}
	if err := runPackageCommand(ctx, session, spec); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("installed %s via %s", strings.Join(a.Packages, ", "), mgr)}, nil
}

// PackageRemove removes packages through the host's package manager.
type PackageRemove struct {
	Packages []string
	Manager  string
}

func newPackageRemove(params map[string]any) (Action, error) {
	packages, err := probe.StringSliceParam(params, "packages", true)
	if err != nil {
		return nil, err
	}
	manager, err := probe.StringParam(params, "manager", false)
	if err != nil {
		return nil, err
	}
	return &PackageRemove{Packages: packages, Manager: manager}, nil
}

// Apply implements Action.
func (a *PackageRemove) Apply(ctx context.Context, session *probe.Session) (Result, error) {
	mgr, spec, err := managerSpec(session, a.Manager, "remove", a.Packages)
	if err != nil {
		return Result{}, err
	}
	if err := runPackageCommand(ctx, session, spec); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("removed %s via %s", strings.Join(a.Packages, ", "), mgr)}, nil
}

// managerSpec builds the install or remove command line for the resolved
// package manager. Unlike probes, actions cannot shrug; a host without a
// supported manager is an error here.
func managerSpec(session *probe.Session, explicit, verb string, packages []string) (string, execx.Spec, error) {
	mgr := strings.TrimSpace(explicit)
	if mgr == "" {
		mgr = session.Facts.PackageManager
	}

	switch mgr {
	case "apk":
		apkVerb := "add"
		if verb == "remove" {
			apkVerb = "del"
		}
		return mgr, execx.Spec{
			Command: "apk",
			Args:    append([]string{apkVerb}, packages...),
		}, nil
	case "apt":
		aptVerb := "install"
		if verb == "remove" {
			aptVerb = "remove"
		}
		return mgr, execx.Spec{
			Command: "apt-get",
			Args:    append([]string{aptVerb, "-y"}, packages...),
			Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		}, nil
	default:
		return "", execx.Spec{}, fmt.Errorf("no supported package manager found")
	}
}

func runPackageCommand(ctx context.Context, session *probe.Session, spec execx.Spec) error {
	res, err := session.Runner.Run(ctx, spec)
	if err != nil {
		return err
	}
	if res.TimedOut {
		return fmt.Errorf("%s %s timed out", spec.Command, strings.Join(spec.Args, " "))
	}
	if res.ExitCode != 0 {
		out := execx.PrimaryOutput(res)
		if out == "" {
			out = fmt.Sprintf("exit %d", res.ExitCode)
		}
		return fmt.Errorf("%s %s failed: %s", spec.Command, strings.Join(spec.Args, " "), out)
	}
	return nil
}
