package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/model"
)

func TestFileExistsProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nix.conf")
	require.NoError(t, os.WriteFile(path, []byte("experimental-features = nix-command flakes\n"), 0o644))

	p, err := newFileExists(map[string]any{"path": path})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)

	p, err = newFileExists(map[string]any{"path": filepath.Join(dir, "missing.conf")})
	require.NoError(t, err)

	status, err = p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
}

func TestFileAbsentProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motd")
	require.NoError(t, os.WriteFile(path, []byte("welcome\n"), 0o644))

	p, err := newFileAbsent(map[string]any{"path": path})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)

	p, err = newFileAbsent(map[string]any{"path": filepath.Join(dir, "gone")})
	require.NoError(t, err)

	status, err = p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestFileMatchesProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sshd_config")
	require.NoError(t, os.WriteFile(path, []byte("PermitRootLogin no\n"), 0o644))

	p, err := newFileMatches(map[string]any{"path": path, "content": "PermitRootLogin no\n"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
	require.Empty(t, status.Diff)
}

func TestFileMatchesProbeDrift(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sshd_config")
	require.NoError(t, os.WriteFile(path, []byte("PermitRootLogin yes\n"), 0o644))

	p, err := newFileMatches(map[string]any{"path": path, "content": "PermitRootLogin no\n"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Diff, "-PermitRootLogin yes")
	require.Contains(t, status.Diff, "+PermitRootLogin no")
}

func TestFileMatchesProbeMissingFile(t *testing.T) {
	p, err := newFileMatches(map[string]any{
		"path":    filepath.Join(t.TempDir(), "absent"),
		"content": "anything",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "does not exist")
}

func TestFileContainsProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile")
	require.NoError(t, os.WriteFile(path, []byte("export EDITOR=vim\nexport PAGER=less\n"), 0o644))

	p, err := newFileContains(map[string]any{"path": path, "pattern": `EDITOR=\w+`})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)

	p, err = newFileContains(map[string]any{"path": path, "pattern": `^GOPATH=`})
	require.NoError(t, err)

	status, err = p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
}

func TestFileContainsRejectsBadPattern(t *testing.T) {
	_, err := newFileContains(map[string]any{"path": "/etc/profile", "pattern": "([unclosed"})
	require.ErrorContains(t, err, "invalid pattern")
}

func TestSymlinkPointsProbe(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nvim")
	link := filepath.Join(dir, "vi")
	require.NoError(t, os.WriteFile(target, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink(target, link))

	p, err := newSymlinkPoints(map[string]any{"path": link, "target": target})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestSymlinkPointsProbeWrongTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nvim")
	other := filepath.Join(dir, "vim")
	link := filepath.Join(dir, "vi")
	require.NoError(t, os.WriteFile(target, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(other, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink(other, link))

	p, err := newSymlinkPoints(map[string]any{"path": link, "target": target})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "want")
}

func TestSymlinkPointsProbeRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vi")
	require.NoError(t, os.WriteFile(path, []byte("not a link"), 0o644))

	p, err := newSymlinkPoints(map[string]any{"path": path, "target": "/usr/bin/nvim"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "not a symlink")
}
