package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
)

func TestPackageInstallApk(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk add jq curl": {ExitCode: 0},
	}}
	session := fakeSession(facts.Facts{PackageManager: "apk"}, fake)

	a, err := newPackageInstall(map[string]any{"packages": []any{"jq", "curl"}})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.Contains(t, res.Message, "installed jq, curl via apk")
	require.Equal(t, []string{"apk add jq curl"}, fake.calls)
}

func TestPackageInstallApt(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apt-get install -y jq": {ExitCode: 0},
	}}
	session := fakeSession(facts.Facts{PackageManager: "apt"}, fake)

	a, err := newPackageInstall(map[string]any{"packages": "jq"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, []string{"apt-get install -y jq"}, fake.calls)
}

func TestPackageInstallFailure(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk add notreal": {ExitCode: 1, Stderr: "ERROR: unable to select packages: notreal (no such package)"},
	}}
	session := fakeSession(facts.Facts{PackageManager: "apk"}, fake)

	a, err := newPackageInstall(map[string]any{"packages": "notreal"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no such package")
}

func TestPackageInstallWithoutManagerFails(t *testing.T) {
	session := fakeSession(facts.Facts{PackageManager: "unknown"}, &fakeExec{})

	a, err := newPackageInstall(map[string]any{"packages": "jq"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.ErrorContains(t, err, "no supported package manager")
}

func TestPackageRemove(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk del telnet":           {ExitCode: 0},
		"apt-get remove -y telnet": {ExitCode: 0},
	}}

	session := fakeSession(facts.Facts{PackageManager: "apk"}, fake)
	a, err := newPackageRemove(map[string]any{"packages": "telnet"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.NoError(t, err)

	session = fakeSession(facts.Facts{PackageManager: "apt"}, fake)
	a, err = newPackageRemove(map[string]any{"packages": "telnet"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.NoError(t, err)

	require.Equal(t, []string{"apk del telnet", "apt-get remove -y telnet"}, fake.calls)
}

func TestPackageInstallTimeout(t *testing.T) {
	fake := &fakeExec{results: map[string]execx.Result{
		"apk add emacs": {ExitCode: execx.TimeoutExitCode, TimedOut: true},
	}}
	session := fakeSession(facts.Facts{PackageManager: "apk"}, fake)

	a, err := newPackageInstall(map[string]any{"packages": "emacs"})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), session)
	require.ErrorContains(t, err, "timed out")
}
