package action

import (
	"context"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/internal/probe"
)

// RepoClone clones a git repository to a destination directory. It never
// touches an existing clone; the repo_cloned probe reports those satisfied
// or unsatisfied and a wrong-origin clone has to be removed deliberately.
type RepoClone struct {
	URL         string
	Destination string
	Branch      string
	Depth       int
}

func newRepoClone(params map[string]any) (Action, error) {
	url, err := probe.StringParam(params, "url", true)
	if err != nil {
		return nil, err
	}
	destination, err := probe.StringParam(params, "destination", true)
	if err != nil {
		return nil, err
	}
	branch, err := probe.StringParam(params, "branch", false)
	if err != nil {
		return nil, err
	}
	depth, err := probe.IntParam(params, "depth", 0)
	if err != nil {
		return nil, err
	}
	return &RepoClone{URL: url, Destination: destination, Branch: branch, Depth: depth}, nil
}

// Apply implements Action.
func (a *RepoClone) Apply(ctx context.Context, _ *probe.Session) (Result, error) {
	dest, err := blockfile.ExpandPath(a.Destination)
	if err != nil {
		return Result{}, err
	}

	if _, err := git.PlainOpen(dest); err == nil {
		return Result{}, fmt.Errorf("repository already present at %s, remove it before recloning", dest)
	}

	_, statErr := os.Stat(dest)
	existedBefore := statErr == nil

	opts := &git.CloneOptions{URL: a.URL}
	if a.Depth > 0 {
		opts.Depth = a.Depth
	}
	if a.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(a.Branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		// A failed clone leaves a partial directory behind, but never
		// remove a directory the user had before.
		if !existedBefore {
			os.RemoveAll(dest)
		}
		return Result{}, fmt.Errorf("clone %s: %w", a.URL, err)
	}
	return Result{Message: fmt.Sprintf("cloned %s to %s", a.URL, dest)}, nil
}
