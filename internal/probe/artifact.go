package probe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/avigneault/groundwork/internal/blockfile"
)

// ArtifactPresent reports satisfied when a downloaded file exists and, if a
// checksum is declared, matches it. Drifted or truncated downloads surface
// as unsatisfied so the download action re-fetches them.
type ArtifactPresent struct {
	Path   string
	SHA256 string
}

func newArtifactPresent(params map[string]any) (Probe, error) {
	path, err := StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	sum, err := StringParam(params, "sha256", false)
	if err != nil {
		return nil, err
	}
	return &ArtifactPresent{Path: path, SHA256: strings.ToLower(sum)}, nil
}

// Evaluate implements Probe.
func (p *ArtifactPresent) Evaluate(_ context.Context, _ *Session) (Status, error) {
	expanded, err := blockfile.ExpandPath(p.Path)
	if err != nil {
		return Status{}, err
	}

	f, err := os.Open(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return Unsatisfied("%s does not exist", expanded), nil
		}
		return Status{}, err
	}
	defer f.Close()

	if p.SHA256 == "" {
		return Satisfied("%s exists", expanded), nil
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Status{}, err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual == p.SHA256 {
		return Satisfied("%s matches checksum", expanded), nil
	}
	return Unsatisfied("%s checksum mismatch: got %s, want %s", expanded, actual, p.SHA256), nil
}
