package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avigneault/groundwork/internal/model"
)

func writeBlockFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".profile")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBlockPresentProbeUpToDate(t *testing.T) {
	path := writeBlockFixture(t, "export PATH=$PATH:~/bin\n"+
		"# >>> groundwork:starship >>>\n"+
		"eval \"$(starship init bash)\"\n"+
		"# <<< groundwork:starship <<<\n")

	p, err := newBlockPresent(map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestBlockPresentProbeMissing(t *testing.T) {
	path := writeBlockFixture(t, "export PATH=$PATH:~/bin\n")

	p, err := newBlockPresent(map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "missing")
}

func TestBlockPresentProbeOutdated(t *testing.T) {
	path := writeBlockFixture(t, "# >>> groundwork:starship >>>\n"+
		"eval \"$(starship init sh)\"\n"+
		"# <<< groundwork:starship <<<\n")

	p, err := newBlockPresent(map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "outdated")
	require.NotEmpty(t, status.Diff)
}

func TestBlockPresentProbeDuplicated(t *testing.T) {
	path := writeBlockFixture(t, "# >>> groundwork:starship >>>\n"+
		"eval \"$(starship init bash)\"\n"+
		"# <<< groundwork:starship <<<\n"+
		"# >>> groundwork:starship >>>\n"+
		"eval \"$(starship init bash)\"\n"+
		"# <<< groundwork:starship <<<\n")

	p, err := newBlockPresent(map[string]any{
		"path":     path,
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "appears 2 times")
}

func TestBlockPresentProbeMissingFile(t *testing.T) {
	p, err := newBlockPresent(map[string]any{
		"path":     filepath.Join(t.TempDir(), "absent"),
		"block_id": "starship",
		"content":  "eval \"$(starship init bash)\"",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)
	require.Contains(t, status.Message, "does not exist")
}

func TestBlockAbsentProbe(t *testing.T) {
	path := writeBlockFixture(t, "# >>> groundwork:proxy >>>\n"+
		"export http_proxy=http://proxy:3128\n"+
		"# <<< groundwork:proxy <<<\n")

	p, err := newBlockAbsent(map[string]any{"path": path, "block_id": "proxy"})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateUnsatisfied, status.State)

	clean := writeBlockFixture(t, "export EDITOR=vim\n")

	p, err = newBlockAbsent(map[string]any{"path": clean, "block_id": "proxy"})
	require.NoError(t, err)

	status, err = p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestBlockAbsentProbeMissingFile(t *testing.T) {
	p, err := newBlockAbsent(map[string]any{
		"path":     filepath.Join(t.TempDir(), "absent"),
		"block_id": "proxy",
	})
	require.NoError(t, err)

	status, err := p.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.StateSatisfied, status.State)
}

func TestBlockParamsRequireID(t *testing.T) {
	_, err := newBlockPresent(map[string]any{"path": "/etc/profile"})
	require.ErrorContains(t, err, `missing required parameter "block_id"`)
}
