package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/model"
)

func TestPackageInstalledApk(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e jq":   {ExitCode: 0, Stdout: "jq"},
		"apk info -e curl": {ExitCode: 0, Stdout: "curl"},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apk"}, fake)

	p, err := newPackageInstalled(map[string]any{"packages": []any{"jq", "curl"}})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
	require.Contains(t, status.Message, "all 2 packages installed")
	require.Equal(t, []string{"apk info -e jq", "apk info -e curl"}, fake.calls)
}

func TestPackageInstalledApkMissing(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e jq":   {ExitCode: 0, Stdout: "jq"},
		"apk info -e sops": {ExitCode: 1},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apk"}, fake)

	p, err := newPackageInstalled(map[string]any{"packages": []any{"jq", "sops"}})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "packages missing: sops")
}

func TestPackageInstalledAptRequiresInstalledStatus(t *testing.T) {
	// dpkg-query exits 0 for removed-but-configured packages; only the
	// status text is trustworthy.
	fake := &fakeExec{results: map[string]execx.Result{
		"dpkg-query -W -f=${Status} jq":   {ExitCode: 0, Stdout: "install ok installed"},
		"dpkg-query -W -f=${Status} sops": {ExitCode: 0, Stdout: "deinstall ok config-files"},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apt"}, fake)

	p, err := newPackageInstalled(map[string]any{"packages": []any{"jq", "sops"}})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "sops")
}

func TestPackageInstalledExplicitManagerOverridesFacts(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e jq": {ExitCode: 0, Stdout: "jq"},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apt"}, fake)

	p, err := newPackageInstalled(map[string]any{"packages": "jq", "manager": "apk"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
	require.Equal(t, []string{"apk info -e jq"}, fake.calls)
}

func TestPackageInstalledNoManagerIsIndeterminate(t *testing.T) {
	session := newFakeSession(facts.Facts{PackageManager: "unknown"}, &fakeExec{})

	p, err := newPackageInstalled(map[string]any{"packages": "jq"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateIndeterminate, status.State)
	require.Contains(t, status.Message, "no supported package manager")
}

func TestPackageInstalledQueryTimeout(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e jq": {ExitCode: execx.TimeoutExitCode, TimedOut: true},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apk"}, fake)

	p, err := newPackageInstalled(map[string]any{"packages": "jq"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateIndeterminate, status.State)
	require.Contains(t, status.Message, "timed out")
}

func TestPackageAbsent(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e telnet": {ExitCode: 1},
		"apk info -e rsh":    {ExitCode: 1},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apk"}, fake)

	p, err := newPackageAbsent(map[string]any{"packages": []any{"telnet", "rsh"}})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestPackageAbsentStillInstalled(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk info -e telnet": {ExitCode: 0, Stdout: "telnet"},
	}}
	session := newFakeSession(facts.Facts{PackageManager: "apk"}, fake)

	p, err := newPackageAbsent(map[string]any{"packages": "telnet"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "still installed: telnet")
}
