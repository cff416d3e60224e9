package probe

import (
	"fmt"
)

// Catalog kind sugar and custom items both hand probes their parameters as
// a generic map. The helpers below decode the handful of shapes YAML
// produces; builders fail fast on anything else.

// StringParam returns params[key] as a string. Required keys must be
// present and non-empty.
func StringParam(params map[string]any, key string, required bool) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("missing required parameter %q", key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, raw)
	}
	if required && s == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return s, nil
}

// StringSliceParam returns params[key] as a []string, accepting both a
// plain string and a list.
func StringSliceParam(params map[string]any, key string, required bool) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		if required {
			return nil, fmt.Errorf("missing required parameter %q", key)
		}
		return nil, nil
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			if required {
				return nil, fmt.Errorf("missing required parameter %q", key)
			}
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q[%d] must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		if required && len(out) == 0 {
			return nil, fmt.Errorf("missing required parameter %q", key)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter %q must be a string or list of strings, got %T", key, raw)
	}
}

// BoolParam returns params[key] as a bool, defaulting when absent.
func BoolParam(params map[string]any, key string, fallback bool) (bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a bool, got %T", key, raw)
	}
	return b, nil
}

// IntParam returns params[key] as an int, defaulting when absent. YAML
// numbers may arrive as int or uint64 depending on magnitude.
func IntParam(params map[string]any, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("parameter %q must be an integer, got %T", key, raw)
	}
}
