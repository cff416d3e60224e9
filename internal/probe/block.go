package probe

import (
	"context"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/pkg/diff"
)

// BlockPresent reports satisfied when a managed block exists exactly once
// with the desired body.
type BlockPresent struct {
	Block blockfile.Block
}

func newBlockPresent(params map[string]any) (Probe, error) {
	block, err := blockFromParams(params)
	if err != nil {
		return nil, err
	}
	return &BlockPresent{Block: block}, nil
}

// Evaluate implements Probe.
func (p *BlockPresent) Evaluate(_ context.Context, _ *Session) (Status, error) {
	state, err := blockfile.ReadState(p.Block.Path)
	if err != nil {
		return Status{}, err
	}
	if !state.Exists {
		return Unsatisfied("%s does not exist", state.OriginalPath), nil
	}

	insp := blockfile.Inspect(state, p.Block)
	switch {
	case insp.UpToDate:
		return Satisfied("block %q present in %s", p.Block.ID, state.OriginalPath), nil
	case insp.Count > 1:
		return Unsatisfied("block %q appears %d times in %s", p.Block.ID, insp.Count, state.OriginalPath), nil
	case insp.Found:
		status := Unsatisfied("block %q in %s is outdated", p.Block.ID, state.OriginalPath)
		status.Diff = diff.Unified(
			[]byte(insp.Current), []byte(p.Block.Content),
			"block (current)", "block (desired)",
		)
		return status, nil
	default:
		return Unsatisfied("block %q missing from %s", p.Block.ID, state.OriginalPath), nil
	}
}

// BlockAbsent reports satisfied when no managed block with the ID remains.
type BlockAbsent struct {
	Block blockfile.Block
}

func newBlockAbsent(params map[string]any) (Probe, error) {
	block, err := blockFromParams(params)
	if err != nil {
		return nil, err
	}
	return &BlockAbsent{Block: block}, nil
}

// Evaluate implements Probe.
func (p *BlockAbsent) Evaluate(_ context.Context, _ *Session) (Status, error) {
	state, err := blockfile.ReadState(p.Block.Path)
	if err != nil {
		return Status{}, err
	}
	if !state.Exists {
		return Satisfied("%s does not exist", state.OriginalPath), nil
	}

	insp := blockfile.Inspect(state, p.Block)
	if insp.Found {
		return Unsatisfied("block %q still present in %s", p.Block.ID, state.OriginalPath), nil
	}
	return Satisfied("block %q absent from %s", p.Block.ID, state.OriginalPath), nil
}

func blockFromParams(params map[string]any) (blockfile.Block, error) {
	var block blockfile.Block

	path, err := StringParam(params, "path", true)
	if err != nil {
		return block, err
	}
	id, err := StringParam(params, "block_id", true)
	if err != nil {
		return block, err
	}
	content, err := StringParam(params, "content", false)
	if err != nil {
		return block, err
	}
	prefix, err := StringParam(params, "comment_prefix", false)
	if err != nil {
		return block, err
	}

	block.Path = path
	block.ID = id
	block.Content = content
	block.CommentPrefix = prefix
	return block, nil
}
