package svc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
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

func TestForInit(t *testing.T) {
	tests := []struct {
		initSystem string
		wantName   string
		wantErr    bool
	}{
		{initSystem: "openrc", wantName: "openrc"},
		{initSystem: "systemd", wantName: "systemd"},
		{initSystem: "sysvinit", wantName: "sysvinit"},
		{initSystem: "unknown", wantErr: true},
		{initSystem: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("init="+tt.initSystem, func(t *testing.T) {
			mgr, err := ForInit(tt.initSystem, &fakeExec{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantName, mgr.Name())
		})
	}
}

func TestOpenRCIsEnabledParsesRunlevel(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update show default": {ExitCode: 0, Stdout: "" +
			"       crond | default\n" +
			"        sshd | default\n"},
	}}
	mgr, err := ForInit("openrc", fake)
	require.NoError(t, err)

	enabled, err := mgr.IsEnabled(context.Background(), "sshd")
	require.NoError(t, err)
	require.True(t, enabled)

	enabled, err = mgr.IsEnabled(context.Background(), "chronyd")
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestOpenRCEnableAndStartSpecs(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update add llm-guard default": {ExitCode: 0},
		"rc-service llm-guard start":      {ExitCode: 0},
	}}
	mgr, err := ForInit("openrc", fake)
	require.NoError(t, err)

	require.NoError(t, mgr.Enable(context.Background(), "llm-guard"))
	require.NoError(t, mgr.Start(context.Background(), "llm-guard"))
	require.Equal(t, []string{
		"rc-update add llm-guard default",
		"rc-service llm-guard start",
	}, fake.calls)
}

func TestSystemdQuerySpecs(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"systemctl is-enabled --quiet sshd": {ExitCode: 0},
		"systemctl is-active --quiet sshd":  {ExitCode: 3},
	}}
	mgr, err := ForInit("systemd", fake)
	require.NoError(t, err)

	enabled, err := mgr.IsEnabled(context.Background(), "sshd")
	require.NoError(t, err)
	require.True(t, enabled)

	active, err := mgr.IsActive(context.Background(), "sshd")
	require.NoError(t, err)
	require.False(t, active)
}

func TestSysvinitDisableSpec(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"update-rc.d -f telnetd remove": {ExitCode: 0},
	}}
	mgr, err := ForInit("sysvinit", fake)
	require.NoError(t, err)

	require.NoError(t, mgr.Disable(context.Background(), "telnetd"))
	require.Equal(t, []string{"update-rc.d -f telnetd remove"}, fake.calls)
}

func TestRunSurfacesCommandOutput(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-service sshd start": {ExitCode: 1, Stderr: " * Failed to start sshd"},
	}}
	mgr, err := ForInit("openrc", fake)
	require.NoError(t, err)

	err = mgr.Start(context.Background(), "sshd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Failed to start sshd")
}

func TestRunMapsTimeout(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-service sshd stop": {ExitCode: execx.TimeoutExitCode, TimedOut: true},
	}}
	mgr, err := ForInit("openrc", fake)
	require.NoError(t, err)

	err = mgr.Stop(context.Background(), "sshd")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestQueryMapsTimeout(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"systemctl is-active --quiet sshd": {ExitCode: execx.TimeoutExitCode, TimedOut: true},
	}}
	mgr, err := ForInit("systemd", fake)
	require.NoError(t, err)

	_, err = mgr.IsActive(context.Background(), "sshd")
	require.ErrorIs(t, err, ErrTimeout)
}
