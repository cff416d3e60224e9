package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
)

func TestServiceEnableAndStart(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update add llm-guard default": {ExitCode: 0},
		"rc-service llm-guard status":     {ExitCode: 3},
		"rc-service llm-guard start":      {ExitCode: 0},
	}}
	session := fakeSession(facts.Facts{InitSystem: "openrc"}, fake)

	a, err := newServiceEnable(map[string]any{"service": "llm-guard", "start": true})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.Contains(t, res.Message, "enabled and started")
	require.Equal(t, []string{
		"rc-update add llm-guard default",
		"rc-service llm-guard status",
		"rc-service llm-guard start",
	}, fake.calls)
}

func TestServiceEnableSkipsStartWhenRunning(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update add sshd default": {ExitCode: 0},
		"rc-service sshd status":     {ExitCode: 0, Stdout: " * status: started"},
	}}
	session := fakeSession(facts.Facts{InitSystem: "openrc"}, fake)

	a, err := newServiceEnable(map[string]any{"service": "sshd", "start": true})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.NotContains(t, fake.calls, "rc-service sshd start")
}

func TestServiceEnableOnly(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update add sshd default": {ExitCode: 0},
	}}
	session := fakeSession(facts.Facts{InitSystem: "openrc"}, fake)

	a, err := newServiceEnable(map[string]any{"service": "sshd"})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, "enabled sshd", res.Message)
	require.Equal(t, []string{"rc-update add sshd default"}, fake.calls)
}

func TestServiceDisableStopsRunningService(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"rc-update del telnetd default": {ExitCode: 0},
		"rc-service telnetd status":     {ExitCode: 0, Stdout: " * status: started"},
		"rc-service telnetd stop":       {ExitCode: 0},
	}}
	session := fakeSession(facts.Facts{InitSystem: "openrc"}, fake)

	a, err := newServiceDisable(map[string]any{"service": "telnetd"})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.Contains(t, res.Message, "disabled and stopped")
	require.Contains(t, fake.calls, "rc-service telnetd stop")
}

func TestServiceDisableUnsupportedInit(t *testing.T) {
	session := fakeSession(facts.Facts{InitSystem: "unknown"}, &fakeExec{})

	a, err := newServiceDisable(map[string]any{"service": "telnetd"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.ErrorContains(t, err, "unsupported init system")
}
