package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// RunEnv builds the template environment for a run: the process environment
// merged over the catalog's env_file, so exported variables win over file
// defaults. A relative env_file resolves against the catalog's directory.
func RunEnv(doc *Document, catalogPath string) (map[string]string, error) {
	env := make(map[string]string)

	if doc.Settings.EnvFile != "" {
		path := doc.Settings.EnvFile
		if !filepath.IsAbs(path) && catalogPath != "" {
			path = filepath.Join(filepath.Dir(catalogPath), path)
		}
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, gwerrors.NewValidationError("settings.env_file", "cannot read "+path, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}

	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env, nil
}
