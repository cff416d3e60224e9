package probe

import (
	"context"
	"strings"

	"github.com/avigneault/groundwork/internal/execx"
)

// PackageInstalled reports satisfied when every listed package is installed
// according to the host's package manager.
type PackageInstalled struct {
	Packages []string
	Manager  string
}

func newPackageInstalled(params map[string]any) (Probe, error) {
	packages, err := StringSliceParam(params, "packages", true)
	if err != nil {
		return nil, err
	}
	manager, err := StringParam(params, "manager", false)
	if err != nil {
		return nil, err
	}
	return &PackageInstalled{Packages: packages, Manager: manager}, nil
}

// Evaluate implements Probe.
func (p *PackageInstalled) Evaluate(ctx context.Context, session *Session) (Status, error) {
	installed, missing, indeterminate, err := packageStates(ctx, session, p.Manager, p.Packages)
	if err != nil {
		return Status{}, err
	}
	if indeterminate != "" {
		return Indeterminate("%s", indeterminate), nil
	}

	if len(missing) == 0 {
		return Satisfied("all %d packages installed", len(installed)), nil
	}
	return Unsatisfied("packages missing: %s", strings.Join(missing, ", ")), nil
}

// PackageAbsent reports satisfied when none of the listed packages is
// installed.
type PackageAbsent struct {
	Packages []string
	Manager  string
}

func newPackageAbsent(params map[string]any) (Probe, error) {
	packages, err := StringSliceParam(params, "packages", true)
	if err != nil {
		return nil, err
	}
	manager, err := StringParam(params, "manager", false)
	if err != nil {
		return nil, err
	}
	return &PackageAbsent{Packages: packages, Manager: manager}, nil
}

// Evaluate implements Probe.
func (p *PackageAbsent) Evaluate(ctx context.Context, session *Session) (Status, error) {
	installed, _, indeterminate, err := packageStates(ctx, session, p.Manager, p.Packages)
	if err != nil {
		return Status{}, err
	}
	if indeterminate != "" {
		return Indeterminate("%s", indeterminate), nil
	}

	if len(installed) == 0 {
		return Satisfied("no listed packages installed"), nil
	}
	return Unsatisfied("packages still installed: %s", strings.Join(installed, ", ")), nil
}

// packageStates partitions packages into installed and missing. A non-empty
// indeterminate reason means the host could not answer at all.
func packageStates(ctx context.Context, session *Session, manager string, packages []string) (installed, missing []string, indeterminate string, err error) {
	mgr := resolveManager(session, manager)
	if mgr == "" {
		return nil, nil, "no supported package manager found", nil
	}

	for _, pkg := range packages {
		res, runErr := session.Runner.Run(ctx, querySpec(mgr, pkg))
		if runErr != nil {
			return nil, nil, "", runErr
		}
		if res.TimedOut {
			return nil, nil, "package query for " + pkg + " timed out", nil
		}
		if packageQueryInstalled(mgr, res) {
			installed = append(installed, pkg)
		} else {
			missing = append(missing, pkg)
		}
	}
	return installed, missing, "", nil
}

// resolveManager prefers the explicit manager, then host facts.
func resolveManager(session *Session, explicit string) string {
	mgr := strings.TrimSpace(explicit)
	if mgr == "" {
		mgr = session.Facts.PackageManager
	}
	switch mgr {
	case "apk", "apt":
		return mgr
	default:
		return ""
	}
}

func querySpec(manager, pkg string) execx.Spec {
	switch manager {
	case "apk":
		return execx.Spec{Command: "apk", Args: []string{"info", "-e", pkg}}
	default:
		return execx.Spec{Command: "dpkg-query", Args: []string{"-W", "-f=${Status}", pkg}}
	}
}

func packageQueryInstalled(manager string, res execx.Result) bool {
	if res.ExitCode != 0 {
		return false
	}
	if manager == "apt" {
		return strings.Contains(res.Stdout, "install ok installed")
	}
	return true
}
