package probe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/model"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// fakeExec scripts command results keyed by the full command line. Tests
// for package, service, and disk probes use it so they never depend on the
// host's tooling.
type fakeExec struct {
	results map[string]execx.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeExec) Run(_ context.Context, spec execx.Spec) (execx.Result, error) {
	key := strings.Join(append([]string{spec.Command}, spec.Args...), " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return execx.Result{}, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return execx.Result{ExitCode: 127, Stderr: "not scripted: " + key}, nil
}

func newFakeSession(f facts.Facts, fake *fakeExec) *Session {
	return NewSession(f, nil, fake)
}

type staticProbe struct {
	status Status
}

func (p *staticProbe) Evaluate(context.Context, *Session) (Status, error) {
	return p.status, nil
}

func TestRegistryRegisterAndBuild(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("static", func(map[string]any) (Probe, error) {
		return &staticProbe{status: Satisfied("ok")}, nil
	})
	require.NoError(t, err)

	p, err := reg.Build("static", nil)
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	builder := func(map[string]any) (Probe, error) { return &staticProbe{}, nil }

	require.NoError(t, reg.Register("static", builder))

	err := reg.Register("static", builder)
	require.Error(t, err)

	var regErr *gwerrors.RegistryError
	require.ErrorAs(t, err, &regErr)
	require.Equal(t, "static", regErr.Kind)
}

func TestRegistryRejectsNilBuilder(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register("static", nil))
}

func TestRegistryBuildUnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Build("no_such_probe", nil)
	require.Error(t, err)

	var regErr *gwerrors.RegistryError
	require.ErrorAs(t, err, &regErr)
	require.Equal(t, "no_such_probe", regErr.Kind)
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewRegistry()
	builder := func(map[string]any) (Probe, error) { return &staticProbe{}, nil }

	require.NoError(t, reg.Register("zeta", builder))
	require.NoError(t, reg.Register("alpha", builder))
	require.NoError(t, reg.Register("mid", builder))

	require.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Types())
}

func TestStatusConstructors(t *testing.T) {
	s := Satisfied("found %d items", 3)
	require.Equal(t, model.StateSatisfied, s.State)
	require.Equal(t, "found 3 items", s.Message)

	u := Unsatisfied("missing")
	require.Equal(t, model.StateUnsatisfied, u.State)

	i := Indeterminate("cannot tell")
	require.Equal(t, model.StateIndeterminate, i.State)
	require.Equal(t, "cannot tell", i.Message)
}

func TestSessionCommandExists(t *testing.T) {
	session := NewSession(facts.Facts{}, nil, execx.New(nil))

	require.True(t, session.CommandExists("sh"))
	require.False(t, session.CommandExists("groundwork-no-such-binary"))

	// Second lookup answers from the session cache.
	require.True(t, session.CommandExists("sh"))
}

func TestSessionVarsDefaultEmpty(t *testing.T) {
	session := NewSession(facts.Facts{}, nil, nil)
	require.NotNil(t, session.Vars)
}

func TestBuiltinsRegistersAllProbeTypes(t *testing.T) {
	reg := Builtins()

	require.Equal(t, []string{
		"artifact_present",
		"block_absent",
		"block_present",
		"command_exists",
		"command_succeeds",
		"disk_free",
		"file_absent",
		"file_contains",
		"file_exists",
		"file_matches",
		"http_reachable",
		"package_absent",
		"package_installed",
		"repo_cloned",
		"service_disabled",
		"service_enabled",
		"symlink_points",
	}, reg.Types())
}
