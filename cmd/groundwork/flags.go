package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func validateCatalogPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("catalog file is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("catalog file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("catalog path %s is a directory", abs)
	}

	return nil
}

// parseVarFlags turns repeated --var key=value flags into compile overrides.
func parseVarFlags(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
