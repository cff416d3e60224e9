package action

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/probe"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

type fakeExec struct {
	results map[string]execx.Result
	calls   []string
}

func (f *fakeExec) Run(_ context.Context, spec execx.Spec) (execx.Result, error) {
	key := strings.Join(append([]string{spec.Command}, spec.Args...), " ")
	f.calls = append(f.calls, key)
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return execx.Result{ExitCode: 127, Stderr: "not scripted: " + key}, nil
}

func fakeSession(f facts.Facts, fake *fakeExec) *probe.Session {
	return probe.NewSession(f, nil, fake)
}

type staticAction struct {
	result Result
}

func (a *staticAction) Apply(context.Context, *probe.Session) (Result, error) {
	return a.result, nil
}

func TestRegistryRegisterAndBuild(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("static", func(map[string]any) (Action, error) {
		return &staticAction{result: Result{Message: "done"}}, nil
	})
	require.NoError(t, err)

	a, err := reg.Build("static", nil)
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "done", res.Message)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	builder := func(map[string]any) (Action, error) { return &staticAction{}, nil }

	require.NoError(t, reg.Register("static", builder))

	err := reg.Register("static", builder)
	require.Error(t, err)

	var regErr *gwerrors.RegistryError
	require.ErrorAs(t, err, &regErr)
	require.Equal(t, "static", regErr.Kind)
}

func TestRegistryBuildUnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Build("no_such_action", nil)
	require.Error(t, err)

	var regErr *gwerrors.RegistryError
	require.ErrorAs(t, err, &regErr)
	require.Equal(t, "no_such_action", regErr.Kind)
}

func TestBuiltinsRegistersAllActionTypes(t *testing.T) {
	reg := Builtins()

	require.Equal(t, []string{
		"copy_path",
		"download_file",
		"ensure_block",
		"make_symlink",
		"package_install",
		"package_remove",
		"remove_block",
		"remove_path",
		"repo_clone",
		"run_command",
		"service_disable",
		"service_enable",
		"write_file",
	}, reg.Types())
}
