// Package action implements the mutating side of reconciliation. Actions
// run only after a probe reported the host unsatisfied, and every action is
// expected to leave the host in a state its paired probe accepts.
package action

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/avigneault/groundwork/internal/probe"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// Result describes a completed apply.
type Result struct {
	Message string
	Diff    string
}

// Action mutates one aspect of host state toward what an item declares.
type Action interface {
	Apply(ctx context.Context, session *probe.Session) (Result, error)
}

// Builder constructs an action from catalog parameters.
type Builder func(params map[string]any) (Action, error)

// Registry maps action type names to builders. Like the probe registry it
// is created per run, not shared across runs.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder for the given action type.
func (r *Registry) Register(name string, b Builder) error {
	if b == nil {
		return gwerrors.NewRegistryError(name, fmt.Errorf("action builder is nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[name]; exists {
		return gwerrors.NewRegistryError(name, fmt.Errorf("action already registered"))
	}
	r.builders[name] = b
	return nil
}

// Build constructs an action of the given type from params.
func (r *Registry) Build(name string, params map[string]any) (Action, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, gwerrors.NewRegistryError(name, fmt.Errorf("no action registered"))
	}
	a, err := builder(params)
	if err != nil {
		return nil, gwerrors.NewRegistryError(name, err)
	}
	return a, nil
}

// Types lists registered action types in sorted order.
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
