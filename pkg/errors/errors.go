package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures catalog validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProbeError represents a runtime failure while probing an item's state.
// A probe that completes and reports unsatisfied is not an error; this type
// covers probes that could not produce a verdict at all.
type ProbeError struct {
	ItemID string
	Err    error
}

// NewProbeError constructs a ProbeError.
func NewProbeError(itemID string, err error) error {
	return &ProbeError{ItemID: itemID, Err: err}
}

func (e *ProbeError) Error() string {
	if e == nil {
		return ""
	}
	if e.ItemID != "" {
		return fmt.Sprintf("probe error on item %s: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("probe error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ProbeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ApplyError represents a runtime failure while applying an item's action.
type ApplyError struct {
	ItemID string
	Err    error
}

// NewApplyError constructs an ApplyError.
func NewApplyError(itemID string, err error) error {
	return &ApplyError{ItemID: itemID, Err: err}
}

func (e *ApplyError) Error() string {
	if e == nil {
		return ""
	}
	if e.ItemID != "" {
		return fmt.Sprintf("apply error on item %s: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("apply error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ApplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SpawnError indicates a command could not be launched at all: missing
// binary, permission denied, fork failure. Distinct from a command that ran
// and exited non-zero, which is ordinary result data.
type SpawnError struct {
	Command string
	Err     error
}

// NewSpawnError constructs a SpawnError for the given command name.
func NewSpawnError(command string, err error) error {
	return &SpawnError{Command: command, Err: err}
}

func (e *SpawnError) Error() string {
	if e == nil {
		return ""
	}
	if e.Command != "" {
		return fmt.Sprintf("spawn error [%s]: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("spawn error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *SpawnError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RegistryError indicates issues with probe or action registration lookup.
type RegistryError struct {
	Kind    string
	Message string
	Err     error
}

// NewRegistryError constructs a RegistryError for the given probe or action type.
func NewRegistryError(kind string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RegistryError{Kind: kind, Message: message, Err: err}
}

func (e *RegistryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind != "" {
		return fmt.Sprintf("registry error [%s]: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("registry error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RegistryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
