package probe

import (
	"context"
	"errors"

	git "github.com/go-git/go-git/v5"

	"github.com/avigneault/groundwork/internal/blockfile"
)

// RepoCloned reports satisfied when a git repository exists at the
// destination and its origin matches the declared URL.
type RepoCloned struct {
	Destination string
	URL         string
}

func newRepoCloned(params map[string]any) (Probe, error) {
	destination, err := StringParam(params, "destination", true)
	if err != nil {
		return nil, err
	}
	url, err := StringParam(params, "url", false)
	if err != nil {
		return nil, err
	}
	return &RepoCloned{Destination: destination, URL: url}, nil
}

// Evaluate implements Probe.
func (p *RepoCloned) Evaluate(_ context.Context, _ *Session) (Status, error) {
	dest, err := blockfile.ExpandPath(p.Destination)
	if err != nil {
		return Status{}, err
	}

	repo, err := git.PlainOpen(dest)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Unsatisfied("no repository at %s", dest), nil
		}
		return Status{}, err
	}

	if p.URL == "" {
		return Satisfied("repository present at %s", dest), nil
	}

	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return Unsatisfied("repository at %s has no origin remote", dest), nil
	}
	actualURL := remote.Config().URLs[0]
	if actualURL != p.URL {
		return Unsatisfied("repository at %s tracks %s, want %s", dest, actualURL, p.URL), nil
	}
	return Satisfied("repository at %s tracks %s", dest, p.URL), nil
}
