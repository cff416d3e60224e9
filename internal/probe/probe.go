// Package probe implements the read-only side of reconciliation: named
// checks that report whether some aspect of host state matches what an item
// declares. Probes never mutate the host; everything that mutates lives in
// the action package.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"sort"
	"sync"

	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/model"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// Status is a probe verdict. State follows the three-way contract:
// satisfied, unsatisfied, or indeterminate when the host cannot answer.
type Status struct {
	State   model.ProbeState
	Message string
	Diff    string
}

// Satisfied builds a satisfied Status with a message.
func Satisfied(format string, args ...any) Status {
	return Status{State: model.StateSatisfied, Message: fmt.Sprintf(format, args...)}
}

// Unsatisfied builds an unsatisfied Status with a message.
func Unsatisfied(format string, args ...any) Status {
	return Status{State: model.StateUnsatisfied, Message: fmt.Sprintf(format, args...)}
}

// Indeterminate builds an indeterminate Status carrying the reason the
// probe could not decide.
func Indeterminate(format string, args ...any) Status {
	return Status{State: model.StateIndeterminate, Message: fmt.Sprintf(format, args...)}
}

// Probe checks one aspect of host state.
//
// Evaluate MUST NOT mutate the host. It returns an error only when the
// check itself broke (I/O failure, spawn failure); "the state is not what
// the item wants" is a Status, not an error.
type Probe interface {
	Evaluate(ctx context.Context, session *Session) (Status, error)
}

// Builder constructs a probe from catalog parameters.
type Builder func(params map[string]any) (Probe, error)

// Registry maps probe type names to builders. Registries are created per
// run; nothing here is a process-wide singleton.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder for the given probe type.
func (r *Registry) Register(name string, b Builder) error {
	if b == nil {
		return gwerrors.NewRegistryError(name, fmt.Errorf("probe builder is nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[name]; exists {
		return gwerrors.NewRegistryError(name, fmt.Errorf("probe already registered"))
	}
	r.builders[name] = b
	return nil
}

// Build constructs a probe of the given type from params.
func (r *Registry) Build(name string, params map[string]any) (Probe, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, gwerrors.NewRegistryError(name, fmt.Errorf("no probe registered"))
	}
	p, err := builder(params)
	if err != nil {
		return nil, gwerrors.NewRegistryError(name, err)
	}
	return p, nil
}

// Types lists registered probe types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Session carries per-run state shared by every probe and action: the fact
// snapshot, catalog vars, the process runner, and memoized lookups. One
// Session exists per run and dies with it.
type Session struct {
	Facts  facts.Facts
	Vars   map[string]any
	Runner execx.Exec

	mu        sync.Mutex
	lookPath  map[string]bool
	reachable map[string]bool
	client    *http.Client
}

// NewSession builds a Session for one run.
func NewSession(f facts.Facts, vars map[string]any, runner execx.Exec) *Session {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Session{
		Facts:     f,
		Vars:      vars,
		Runner:    runner,
		lookPath:  make(map[string]bool),
		reachable: make(map[string]bool),
		client:    &http.Client{},
	}
}

// CommandExists reports whether name resolves on PATH, memoized for the
// session.
func (s *Session) CommandExists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if found, ok := s.lookPath[name]; ok {
		return found
	}
	_, err := exec.LookPath(name)
	s.lookPath[name] = err == nil
	return s.lookPath[name]
}

// Reachable reports whether url answers an HTTP HEAD with a non-5xx status,
// memoized for the session. Connectivity gates several probes and should be
// checked once per run, not once per item.
func (s *Session) Reachable(ctx context.Context, url string) bool {
	s.mu.Lock()
	if cached, ok := s.reachable[url]; ok {
		s.mu.Unlock()
		return cached
	}
	client := s.client
	s.mu.Unlock()

	ok := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err == nil {
		resp, reqErr := client.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ok = resp.StatusCode < 500
		}
	}

	s.mu.Lock()
	s.reachable[url] = ok
	s.mu.Unlock()
	return ok
}
