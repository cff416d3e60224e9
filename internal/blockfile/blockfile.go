// Package blockfile manages marker-fenced regions inside text files, the
// mechanism behind generated profile snippets. A managed block is delimited
// by begin/end sentinel lines carrying the block ID; ensure and remove
// rewrite only that region and leave the rest of the file untouched.
// Repeated ensures converge: the block appears exactly once afterwards.
package blockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avigneault/groundwork/pkg/diff"
)

const defaultFileMode os.FileMode = 0o644

// Block describes a managed region and the file that carries it.
type Block struct {
	Path          string
	ID            string
	Content       string
	CommentPrefix string
	Create        bool
	Mode          os.FileMode
	Backup        bool
	BackupDir     string
}

// BeginMarker returns the sentinel line opening the block.
func (b Block) BeginMarker() string {
	return fmt.Sprintf("%s >>> groundwork:%s >>>", b.commentPrefix(), b.ID)
}

// EndMarker returns the sentinel line closing the block.
func (b Block) EndMarker() string {
	return fmt.Sprintf("%s <<< groundwork:%s <<<", b.commentPrefix(), b.ID)
}

func (b Block) commentPrefix() string {
	if strings.TrimSpace(b.CommentPrefix) == "" {
		return "#"
	}
	return strings.TrimSpace(b.CommentPrefix)
}

func (b Block) mode() os.FileMode {
	if b.Mode == 0 {
		return defaultFileMode
	}
	return b.Mode
}

// FileState captures the state of a target file prior to modification.
type FileState struct {
	Path            string
	OriginalPath    string
	Exists          bool
	Permissions     os.FileMode
	Content         string
	Lines           []string
	TrailingNewline bool
}

// ReadState expands and resolves path, then loads the file. A missing file
// yields Exists=false rather than an error.
func ReadState(path string) (*FileState, error) {
	expandedPath, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	state := &FileState{
		Path:         expandedPath,
		OriginalPath: expandedPath,
	}

	resolvedPath, err := filepath.EvalSymlinks(expandedPath)
	if err == nil {
		state.Path = resolvedPath
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	info, err := os.Stat(state.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state.Exists = false
			state.Permissions = defaultFileMode
			state.Lines = []string{}
			return state, nil
		}
		return nil, err
	}

	state.Exists = true
	state.Permissions = info.Mode().Perm()

	data, err := os.ReadFile(state.Path)
	if err != nil {
		return nil, err
	}

	state.Content = string(data)
	lines, trailing := splitLines(state.Content)
	state.Lines = lines
	state.TrailingNewline = trailing
	return state, nil
}

// Inspection reports how a block currently appears in a file.
type Inspection struct {
	Found    bool
	Count    int
	Current  string
	UpToDate bool
}

// Inspect locates the block in state. Current holds the body of the first
// occurrence, without markers. UpToDate is true when exactly one block
// exists and its body matches the desired content.
func Inspect(state *FileState, b Block) Inspection {
	var insp Inspection
	if state == nil || !state.Exists {
		return insp
	}

	begin := b.BeginMarker()
	end := b.EndMarker()

	var bodies []string
	for i := 0; i < len(state.Lines); i++ {
		if strings.TrimSpace(state.Lines[i]) != begin {
			continue
		}
		body := []string{}
		closed := false
		for j := i + 1; j < len(state.Lines); j++ {
			if strings.TrimSpace(state.Lines[j]) == end {
				closed = true
				i = j
				break
			}
			body = append(body, state.Lines[j])
		}
		if !closed {
			// Unterminated block: treat everything to EOF as the body so
			// ensure can repair it.
			i = len(state.Lines)
		}
		bodies = append(bodies, strings.Join(body, "\n"))
	}

	insp.Count = len(bodies)
	if insp.Count == 0 {
		return insp
	}

	insp.Found = true
	insp.Current = bodies[0]
	insp.UpToDate = insp.Count == 1 && insp.Current == normalizeBody(b.Content)
	return insp
}

// Ensure makes the block present with the desired content. It collapses
// duplicate occurrences, preserves the position of the first one, and
// appends at end of file when the block is new. Returns whether the file
// changed and a unified diff of the edit.
func Ensure(b Block) (bool, string, error) {
	state, err := ReadState(b.Path)
	if err != nil {
		return false, "", err
	}

	if !state.Exists && !b.Create {
		return false, "", fmt.Errorf("file %s does not exist", state.OriginalPath)
	}

	desired := blockLines(b)

	var newLines []string
	inserted := false
	skipping := false
	begin := b.BeginMarker()
	end := b.EndMarker()

	for _, line := range state.Lines {
		trimmed := strings.TrimSpace(line)
		if skipping {
			if trimmed == end {
				skipping = false
			}
			continue
		}
		if trimmed == begin {
			skipping = true
			if !inserted {
				newLines = append(newLines, desired...)
				inserted = true
			}
			continue
		}
		newLines = append(newLines, line)
	}

	if !inserted {
		newLines = append(newLines, desired...)
	}

	trailing := state.TrailingNewline || !state.Exists || len(state.Lines) == 0
	newContent := joinLines(newLines, trailing)

	if state.Exists && newContent == state.Content {
		return false, "", nil
	}

	changeDiff := diff.Unified(
		[]byte(state.Content), []byte(newContent),
		fmt.Sprintf("%s (current)", state.OriginalPath),
		fmt.Sprintf("%s (desired)", state.OriginalPath),
	)

	if err := commit(state, b, newContent); err != nil {
		return false, "", err
	}
	return true, changeDiff, nil
}

// Remove deletes every occurrence of the block, markers included. A missing
// file or absent block is already the desired state.
func Remove(b Block) (bool, string, error) {
	state, err := ReadState(b.Path)
	if err != nil {
		return false, "", err
	}
	if !state.Exists {
		return false, "", nil
	}

	begin := b.BeginMarker()
	end := b.EndMarker()

	var newLines []string
	skipping := false
	removed := false

	for _, line := range state.Lines {
		trimmed := strings.TrimSpace(line)
		if skipping {
			if trimmed == end {
				skipping = false
			}
			continue
		}
		if trimmed == begin {
			skipping = true
			removed = true
			continue
		}
		newLines = append(newLines, line)
	}

	if !removed {
		return false, "", nil
	}

	newContent := joinLines(newLines, state.TrailingNewline)
	changeDiff := diff.Unified(
		[]byte(state.Content), []byte(newContent),
		fmt.Sprintf("%s (current)", state.OriginalPath),
		fmt.Sprintf("%s (desired)", state.OriginalPath),
	)

	if err := commit(state, b, newContent); err != nil {
		return false, "", err
	}
	return true, changeDiff, nil
}

func commit(state *FileState, b Block, content string) error {
	if b.Backup && state.Exists {
		if _, err := createBackup(state.Path, b.BackupDir, []byte(state.Content), state.Permissions); err != nil {
			return err
		}
	}

	perm := state.Permissions
	if !state.Exists {
		perm = b.mode()
	}
	return WriteFileAtomic(state.Path, []byte(content), perm)
}

func blockLines(b Block) []string {
	lines := []string{b.BeginMarker()}
	body := normalizeBody(b.Content)
	if body != "" {
		lines = append(lines, strings.Split(body, "\n")...)
	}
	lines = append(lines, b.EndMarker())
	return lines
}

func normalizeBody(content string) string {
	return strings.TrimRight(content, "\n")
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}
	trailing := strings.HasSuffix(content, "\n")
	trimmed := content
	if trailing {
		trimmed = strings.TrimSuffix(content, "\n")
	}
	if trimmed == "" {
		if trailing {
			return []string{}, true
		}
		return []string{""}, false
	}
	lines := strings.Split(trimmed, "\n")
	return lines, trailing
}

func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		if trailing {
			return "\n"
		}
		return ""
	}
	joined := strings.Join(lines, "\n")
	if trailing {
		return joined + "\n"
	}
	return joined
}

// ExpandPath expands ~ and resolves relative paths to absolute. Probes and
// actions share it for every user-supplied path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			path = home
		} else if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

// WriteFileAtomic writes data through a temp file in the same directory and
// renames it into place, so readers never observe a partial write. Actions
// that materialize whole files share it.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".blockfile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

func createBackup(path, backupDir string, content []byte, perm os.FileMode) (string, error) {
	targetDir := filepath.Dir(path)
	if strings.TrimSpace(backupDir) != "" {
		expanded, err := ExpandPath(backupDir)
		if err != nil {
			return "", err
		}
		targetDir = expanded
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	timestamp := time.Now().UTC().Format("20060102T150405")
	backupPath := filepath.Join(targetDir, fmt.Sprintf("%s.%s.bak", base, timestamp))

	if err := os.WriteFile(backupPath, content, perm); err != nil {
		return "", err
	}

	return backupPath, nil
}
