package runtime

import (
	"fmt"
	"sort"
)

// Environment is one frame of the lexical scope chain: a mutable name→value
// map plus a link to the enclosing frame (nil only for the global frame).
// Frames are shared by every closure created while they were active, so a
// mutation through one closure is visible through all of them. The enclosing
// link never changes after creation.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a frame, optionally nested under an enclosing one.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Child creates a new frame enclosed by this one. The returned frame is
// independently shareable; its lifetime is governed by reachability, not by
// the syntactic block that created it.
func (e *Environment) Child() *Environment {
	return NewEnvironment(e)
}

// Enclosing exposes the lexical parent (nil when global).
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define inserts or overwrites a binding in this frame only.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a name in this frame alone. For the global frame this is the
// late-bound lookup path used by references the resolver left unresolved.
func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.values[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("undefined variable '%s'", name)
}

// Assign overwrites an existing binding in this frame; it never creates one.
func (e *Environment) Assign(name string, value Value) error {
	if _, ok := e.values[name]; ok {
		e.values[name] = value
		return nil
	}
	return fmt.Errorf("undefined variable '%s'", name)
}

// GetAt walks exactly distance enclosing links, then looks up name there.
// A miss means the resolver and interpreter disagree about scope shape; it
// is reported as an undefined-variable error rather than a crash.
func (e *Environment) GetAt(distance int, name string) (Value, error) {
	frame, err := e.ancestor(distance)
	if err != nil {
		return nil, err
	}
	return frame.Get(name)
}

// AssignAt walks exactly distance enclosing links, then overwrites name.
func (e *Environment) AssignAt(distance int, name string, value Value) error {
	frame, err := e.ancestor(distance)
	if err != nil {
		return err
	}
	return frame.Assign(name, value)
}

func (e *Environment) ancestor(distance int) (*Environment, error) {
	frame := e
	for i := 0; i < distance; i++ {
		if frame.enclosing == nil {
			return nil, fmt.Errorf("scope chain ends %d frames short of resolved distance %d", distance-i, distance)
		}
		frame = frame.enclosing
	}
	return frame, nil
}

// Names returns this frame's binding names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current bindings of this frame only.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}
