package action

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is a tagged action variant. The set of kinds is closed at registry
// construction; unknown kinds are rejected at the plan boundary rather than
// dispatched reflectively.
type Kind string

// Builtin kinds.
const (
	KindMove     Kind = "move"
	KindInteract Kind = "interact"
	KindQuery    Kind = "query"
	KindWait     Kind = "wait"
)

// Factory builds the behavior for one kind from its parameters.
type Factory func(params json.RawMessage) (Behavior, error)

// Registry maps the closed kind set to behavior factories. It is
// constructed once at startup and injected into every executor that needs
// it; there is no process-wide instance.
//
// Thread Safety: the registry is immutable after construction and safe for
// concurrent reads.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates a registry over the given kind set.
func NewRegistry(factories map[Kind]Factory) (*Registry, error) {
	if len(factories) == 0 {
		return nil, fmt.Errorf("%w: no kinds registered", ErrUnknownKind)
	}
	copied := make(map[Kind]Factory, len(factories))
	for kind, factory := range factories {
		if kind == "" || factory == nil {
			return nil, fmt.Errorf("%w: blank kind or nil factory", ErrUnknownKind)
		}
		copied[kind] = factory
	}
	return &Registry{factories: copied}, nil
}

// Build resolves a kind and constructs a pending action for it. This is the
// single boundary lookup; past it, dispatch is through the behavior value.
func (r *Registry) Build(kind Kind, params json.RawMessage) (*Action, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	behavior, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", kind, err)
	}
	return New(kind, params, behavior), nil
}

// Knows reports whether the kind is in the closed set.
func (r *Registry) Knows(kind Kind) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kinds in stable order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
