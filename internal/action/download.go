package action

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/internal/probe"
)

// DownloadFile fetches a URL to a local path, optionally verifying a
// sha256 checksum before the file is moved into place. The artifact_present
// probe decides whether a download is needed at all.
type DownloadFile struct {
	URL    string
	Path   string
	SHA256 string
	Mode   os.FileMode
}

func newDownloadFile(params map[string]any) (Action, error) {
	url, err := probe.StringParam(params, "url", true)
	if err != nil {
		return nil, err
	}
	path, err := probe.StringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	sum, err := probe.StringParam(params, "sha256", false)
	if err != nil {
		return nil, err
	}
	mode, err := fileModeParam(params, "mode", 0o644)
	if err != nil {
		return nil, err
	}
	return &DownloadFile{URL: url, Path: path, SHA256: strings.ToLower(sum), Mode: mode}, nil
}

// Apply implements Action.
func (a *DownloadFile) Apply(ctx context.Context, _ *probe.Session) (Result, error) {
	path, err := blockfile.ExpandPath(a.Path)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", a.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("download %s: unexpected status %s", a.URL, resp.Status)
	}

	h := sha256.New()
	body, err := io.ReadAll(io.TeeReader(resp.Body, h))
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", a.URL, err)
	}

	if a.SHA256 != "" {
		actual := hex.EncodeToString(h.Sum(nil))
		if actual != a.SHA256 {
			return Result{}, fmt.Errorf("download %s: checksum mismatch, got %s, want %s", a.URL, actual, a.SHA256)
		}
	}

	if err := blockfile.WriteFileAtomic(path, body, a.Mode); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("downloaded %s to %s (%d bytes)", a.URL, path, len(body))}, nil
}
