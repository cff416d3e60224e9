package probe

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/pkg/diff"
)

// FileExists reports satisfied when a path exists.
type FileExists struct {
	Path string
}

func newFileExists(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	return &FileExists{Path: path}, nil
}

// Evaluate implements Probe.
func (p *FileExists) Evaluate(_ context.Context, _ *Session) (Status, error) {
	expanded, err := blockfile.ExpandPath(p.Path)
	if err != nil {
		return Status{}, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if os.IsNotExist(err) {
			return Unsatisfied("%s does not exist", expanded), nil
		}
		return Status{}, err
	}
	return Satisfied("%s exists", expanded), nil
}

// FileAbsent reports satisfied when a path does not exist.
type FileAbsent struct {
	Path string
}

func newFileAbsent(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	return &FileAbsent{Path: path}, nil
}

// Evaluate implements Probe.
func (p *FileAbsent) Evaluate(_ context.Context, _ *Session) (Status, error) {
	expanded, err := blockfile.ExpandPath(p.Path)
	if err != nil {
		return Status{}, err
	}
	if _, err := os.Lstat(expanded); err != nil {
		if os.IsNotExist(err) {
			return Satisfied("%s is absent", expanded), nil
		}
		return Status{}, err
	}
	return Unsatisfied("%s still exists", expanded), nil
}

// FileMatches compares a file against desired content byte for byte.
type FileMatches struct {
	Path    string
	Content string
}

func newFileMatches(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	content, err := StringParam(params, "content", false)
	if err != nil {
		return nil, err
	}
	return &FileMatches{Path: path, Content: content}, nil
}

// Evaluate implements Probe.
func (p *FileMatches) Evaluate(_ context.Context, _ *Session) (Status, error) {
	state, err := blockfile.ReadState(p.Path)
	if err != nil {
		return Status{}, err
	}
	if !state.Exists {
		return Unsatisfied("%s does not exist", state.OriginalPath), nil
	}
	if state.Content == p.Content {
		return Satisfied("%s matches desired content", state.OriginalPath), nil
	}

	status := Unsatisfied("%s differs from desired content", state.OriginalPath)
	status.Diff = diff.Unified(
		[]byte(state.Content), []byte(p.Content),
		fmt.Sprintf("%s (current)", state.OriginalPath),
		fmt.Sprintf("%s (desired)", state.OriginalPath),
	)
	return status, nil
}

// FileContains reports satisfied when a file matches a regular expression.
type FileContains struct {
	Path    string
	Pattern *regexp.Regexp
}

func newFileContains(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	pattern, err := StringParam(params, "pattern", true)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &FileContains{Path: path, Pattern: re}, nil
}

// Evaluate implements Probe.
func (p *FileContains) Evaluate(_ context.Context, _ *Session) (Status, error) {
	state, err := blockfile.ReadState(p.Path)
	if err != nil {
		return Status{}, err
	}
	if !state.Exists {
		return Unsatisfied("%s does not exist", state.OriginalPath), nil
	}
	if p.Pattern.MatchString(state.Content) {
		return Satisfied("%s matches %s", state.OriginalPath, p.Pattern), nil
	}
	return Unsatisfied("%s does not match %s", state.OriginalPath, p.Pattern), nil
}

// SymlinkPoints reports satisfied when path is a symlink to target.
type SymlinkPoints struct {
	Path   string
	Target string
}

func newSymlinkPoints(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	target, err := StringParam(params, "target", true)
	if err != nil {
		return nil, err
	}
	return &SymlinkPoints{Path: path, Target: target}, nil
}

// Evaluate implements Probe.
func (p *SymlinkPoints) Evaluate(_ context.Context, _ *Session) (Status, error) {
	expanded, err := blockfile.ExpandPath(p.Path)
	if err != nil {
		return Status{}, err
	}
	target, err := blockfile.ExpandPath(p.Target)
	if err != nil {
		return Status{}, err
	}

	info, err := os.Lstat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return Unsatisfied("%s does not exist", expanded), nil
		}
		return Status{}, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return Unsatisfied("%s exists but is not a symlink", expanded), nil
	}

	dest, err := os.Readlink(expanded)
	if err != nil {
		return Status{}, err
	}
	if dest == target {
		return Satisfied("%s points at %s", expanded, target), nil
	}
	return Unsatisfied("%s points at %s, want %s", expanded, dest, target), nil
}
