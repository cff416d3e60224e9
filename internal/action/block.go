package action

import (
	"context"
	"fmt"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/internal/probe"
)

// EnsureBlock writes or refreshes a managed block in a shared file without
// touching the surrounding content.
type EnsureBlock struct {
	Block blockfile.Block
}

func newEnsureBlock(params map[string]any) (Action, error) {
	block, err := blockParams(params)
	if err != nil {
		return nil, err
	}
	create, err := probe.BoolParam(params, "create", true)
	if err != nil {
		return nil, err
	}
	backup, err := probe.BoolParam(params, "backup", false)
	if err != nil {
		return nil, err
	}
	mode, err := fileModeParam(params, "mode", 0o644)
	if err != nil {
		return nil, err
	}
	backupDir, err := probe.StringParam(params, "backup_dir", false)
	if err != nil {
		return nil, err
	}

	block.Create = create
	block.Backup = backup
	block.Mode = mode
	block.BackupDir = backupDir
	return &EnsureBlock{Block: block}, nil
}

// Apply implements Action.
func (a *EnsureBlock) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	changed, changeDiff, err := blockfile.Ensure(a.Block)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{Message: fmt.Sprintf("block %q already current in %s", a.Block.ID, a.Block.Path)}, nil
	}
	return Result{
		Message: fmt.Sprintf("ensured block %q in %s", a.Block.ID, a.Block.Path),
		Diff:    changeDiff,
	}, nil
}

// RemoveBlock deletes every managed block with the ID, leaving the rest of
// the file untouched.
type RemoveBlock struct {
	Block blockfile.Block
}

func newRemoveBlock(params map[string]any) (Action, error) {
	block, err := blockParams(params)
	if err != nil {
		return nil, err
	}
	backup, err := probe.BoolParam(params, "backup", false)
	if err != nil {
		return nil, err
	}
	backupDir, err := probe.StringParam(params, "backup_dir", false)
	if err != nil {
		return nil, err
	}

	block.Backup = backup
	block.BackupDir = backupDir
	return &RemoveBlock{Block: block}, nil
}

// Apply implements Action.
func (a *RemoveBlock) Apply(_ context.Context, _ *probe.Session) (Result, error) {
	changed, changeDiff, err := blockfile.Remove(a.Block)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{Message: fmt.Sprintf("block %q already absent from %s", a.Block.ID, a.Block.Path)}, nil
	}
	return Result{
		Message: fmt.Sprintf("removed block %q from %s", a.Block.ID, a.Block.Path),
		Diff:    changeDiff,
	}, nil
}

func blockParams(params map[string]any) (blockfile.Block, error) {
	var block blockfile.Block

	path, err := probe.StringParam(params, "path", true)
	if err != nil {
		return block, err
	}
	id, err := probe.StringParam(params, "block_id", true)
	if err != nil {
		return block, err
	}
	content, err := probe.StringParam(params, "content", false)
	if err != nil {
		return block, err
	}
	prefix, err := probe.StringParam(params, "comment_prefix", false)
	if err != nil {
		return block, err
	}

	block.Path = path
	block.ID = id
	block.Content = content
	block.CommentPrefix = prefix
	return block, nil
}
