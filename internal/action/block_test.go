package action

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureBlockCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".profile")

	a, err := newEnsureBlock(map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, res.Message, "ensured block")
	require.NotEmpty(t, res.Diff)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), ">>> groundwork:starship >>>")
	require.Contains(t, string(data), "starship init bash")
}

func TestEnsureBlockConverges(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".profile")

	params := map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	}

	a, err := newEnsureBlock(params)
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), nil)
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, res.Message, "already current")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), ">>> groundwork:starship >>>"))
}

func TestEnsureBlockRespectsCreateFalse(t *testing.T) {
	a, err := newEnsureBlock(map[string]any{
		"path":     filepath.Join(t.TempDir(), "absent"),
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
		"create":   false,
	})
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), nil)
	require.Error(t, err)
}

func TestRemoveBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".profile")
	content := "export EDITOR=vim\n" +
		"# >>> groundwork:proxy >>>\n" +
		"export http_proxy=http://proxy:3128\n" +
		"# <<< groundwork:proxy <<<\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := newRemoveBlock(map[string]any{"path": path, "block_id": "proxy"})
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, res.Message, "removed block")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "export EDITOR=vim\n", string(data))

	res, err = a.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, res.Message, "already absent")
}
