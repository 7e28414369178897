package fsm

import "fmt"

// Registry is the compiled registration table for one machine kind. It is
// built once per kind at startup via a Builder and shared by every machine
// instance of that kind; rebuilding it per instantiation is disallowed.
//
// Invariant: every declared transition target refers to a registered state.
type Registry[T any] struct {
	name    string
	initial StateID
	ctors   map[StateID]func() State[T]
	targets map[StateID][]StateID
}

// Builder accumulates state registrations for a machine kind.
type Builder[T any] struct {
	name    string
	initial StateID
	ctors   map[StateID]func() State[T]
	targets map[StateID][]StateID
	err     error
}

// NewBuilder starts a registration table for the named machine kind with the
// given initial state.
func NewBuilder[T any](name string, initial StateID) *Builder[T] {
	return &Builder[T]{
		name:    name,
		initial: initial,
		ctors:   make(map[StateID]func() State[T]),
		targets: make(map[StateID][]StateID),
	}
}

// Register adds a state constructor together with the transition targets the
// state may request. Duplicate registrations are a build error.
func (b *Builder[T]) Register(id StateID, ctor func() State[T], targets ...StateID) *Builder[T] {
	if b.err != nil {
		return b
	}
	if id == StateNone {
		b.err = fmt.Errorf("fsm.Builder %q: cannot register StateNone", b.name)
		return b
	}
	if ctor == nil {
		b.err = fmt.Errorf("fsm.Builder %q: nil constructor for state %v", b.name, id)
		return b
	}
	if _, exists := b.ctors[id]; exists {
		b.err = fmt.Errorf("fsm.Builder %q: state %v registered twice", b.name, id)
		return b
	}
	b.ctors[id] = ctor
	b.targets[id] = targets
	return b
}

// Build validates the table and returns the immutable Registry. Validation
// failures are configuration errors and must abort startup: an unregistered
// initial state, an empty table, or a declared transition target with no
// registered state.
//
// Postcondition: On success, every reachable transition target has an instance
// in any machine built from this Registry.
func (b *Builder[T]) Build() (*Registry[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.ctors) == 0 {
		return nil, fmt.Errorf("fsm.Builder %q: no states registered", b.name)
	}
	if _, ok := b.ctors[b.initial]; !ok {
		return nil, fmt.Errorf("fsm.Builder %q: initial state %v not registered", b.name, b.initial)
	}
	for id, targets := range b.targets {
		for _, target := range targets {
			if _, ok := b.ctors[target]; !ok {
				return nil, fmt.Errorf("fsm.Builder %q: state %v declares transition to unregistered state %v",
					b.name, id, target)
			}
		}
	}
	return &Registry[T]{
		name:    b.name,
		initial: b.initial,
		ctors:   b.ctors,
		targets: b.targets,
	}, nil
}

// MustBuild is Build for package-level tables whose contents are fixed at
// compile time.
func (b *Builder[T]) MustBuild() *Registry[T] {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}

// Name returns the machine kind label.
func (r *Registry[T]) Name() string {
	return r.name
}

// Initial returns the initial state ID.
func (r *Registry[T]) Initial() StateID {
	return r.initial
}

// instantiate creates one state instance per registered ID.
func (r *Registry[T]) instantiate() map[StateID]State[T] {
	states := make(map[StateID]State[T], len(r.ctors))
	for id, ctor := range r.ctors {
		states[id] = ctor()
	}
	return states
}
