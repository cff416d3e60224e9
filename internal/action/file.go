package action

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/internal/probe"
	"github.com/avigneault/groundwork/pkg/diff"
)

// WriteFile materializes a file with exact content. Paired with the
// file_matches probe it converges config files the catalog owns outright.
type WriteFile struct {
	Path    string
	Content string
	Mode    os.FileMode
}

func newWriteFile(params map[string]any) (Action, error) {
	path, err := probe.StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	content, err := probe.StringParam(params, "content", false)
	if err != nil {
		return nil, err
	}
	mode, err := fileModeParam(params, "mode", 0o644)
	if err != nil {
		return nil, err
	}
	return &WriteFile{Path: path, Content: content, Mode: mode}, nil
}

// Apply implements Action.
func (a *WriteFile) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	state, err := blockfile.ReadState(a.Path)
	if err != nil {
		return Result{}, err
	}

	perm := a.Mode
	if state.Exists {
		perm = state.Permissions
	}
	if err := blockfile.WriteFileAtomic(state.Path, []byte(a.Content), perm); err != nil {
		return Result{}, err
	}

	result := Result{Message: fmt.Sprintf("wrote %s", state.OriginalPath)}
	if state.Exists {
		result.Diff = diff.Unified(
			[]byte(state.Content), []byte(a.Content),
			fmt.Sprintf("%s (current)", state.OriginalPath),
			fmt.Sprintf("%s (desired)", state.OriginalPath),
		)
	}
	return result, nil
}

// RemovePath deletes a file, symlink, or directory tree.
type RemovePath struct {
	Path      string
	Recursive bool
}

func newRemovePath(params map[string]any) (Action, error) {
	path, err := probe.StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	recursive, err := probe.BoolParam(params, "recursive", false)
	if err != nil {
		return nil, err
	}
	return &RemovePath{Path: path, Recursive: recursive}, nil
}

// Apply implements Action.
func (a *RemovePath) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	expanded, err := blockfile.ExpandPath(a.Path)
	if err != nil {
		return Result{}, err
	}

	if _, err := os.Lstat(expanded); err != nil {
		if os.IsNotExist(err) {
			return Result{Message: fmt.Sprintf("%s already absent", expanded)}, nil
		}
		return Result{}, err
	}

	if a.Recursive {
		err = os.RemoveAll(expanded)
	} else {
		err = os.Remove(expanded)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("removed %s", expanded)}, nil
}

// CopyPath copies a file or directory tree into place.
type CopyPath struct {
	Source      string
	Destination string
	Recursive   bool
}

func newCopyPath(params map[string]any) (Action, error) {
	source, err := probe.StringParam(params, "source", true)
	if err != nil {
		return nil, err
	}
	destination, err := probe.StringParam(params, "destination", true)
	if err != nil {
		return nil, err
	}
	recursive, err := probe.BoolParam(params, "recursive", false)
	if err != nil {
		return nil, err
	}
	return &CopyPath{Source: source, Destination: destination, Recursive: recursive}, nil
}

// Apply implements Action.
func (a *CopyPath) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	src, err := blockfile.ExpandPath(a.Source)
	if err != nil {
		return Result{}, err
	}
	dst, err := blockfile.ExpandPath(a.Destination)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return Result{}, fmt.Errorf("cannot stat source: %w", err)
	}

	if info.IsDir() {
		if !a.Recursive {
			return Result{}, fmt.Errorf("%s is a directory, set recursive to copy it", src)
		}
		if err := copyDirectory(src, dst); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("copied %s to %s", src, dst)}, nil
	}

	if err := copyFile(src, dst, info.Mode()); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("copied %s to %s", src, dst)}, nil
}

func copyDirectory(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	return filepath.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode())
		}
		return copyFile(path, dstPath, info.Mode())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	data, err := io.ReadAll(srcFile)
	if err != nil {
		return err
	}
	return blockfile.WriteFileAtomic(dst, data, perm)
}

// MakeSymlink points path at target, replacing whatever was there when
// force is set.
type MakeSymlink struct {
	Path   string
	Target string
	Force  bool
}

func newMakeSymlink(params map[string]any) (Action, error) {
	path, err := probe.StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	target, err := probe.StringParam(params, "target", true)
	if err != nil {
		return nil, err
	}
	force, err := probe.BoolParam(params, "force", false)
	if err != nil {
		return nil, err
	}
	return &MakeSymlink{Path: path, Target: target, Force: force}, nil
}

// Apply implements Action.
func (a *MakeSymlink) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	path, err := blockfile.ExpandPath(a.Path)
	if err != nil {
		return Result{}, err
	}
	target, err := blockfile.ExpandPath(a.Target)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, err
	}

	if _, err := os.Lstat(path); err == nil {
		if !a.Force {
			return Result{}, fmt.Errorf("%s exists, set force to replace it", path)
		}
		if err := os.Remove(path); err != nil {
			return Result{}, err
		}
	} else if !os.IsNotExist(err) {
		return Result{}, err
	}

	if err := os.Symlink(target, path); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("linked %s to %s", path, target)}, nil
}

// fileModeParam decodes an octal mode. YAML usually hands it over as an
// integer literal like 0o600, but quoted strings show up too.
func fileModeParam(params map[string]any, key string, fallback os.FileMode) (os.FileMode, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return os.FileMode(v), nil
	case int64:
		return os.FileMode(v), nil
	case uint64:
		return os.FileMode(v), nil
	case string:
		var mode uint32
		if _, err := fmt.Sscanf(v, "%o", &mode); err != nil {
			return 0, fmt.Errorf("parameter %q must be an octal mode, got %q", key, v)
		}
		return os.FileMode(mode), nil
	default:
		return 0, fmt.Errorf("parameter %q must be an octal mode, got %T", key, raw)
	}
}
