package interp

import (
	werrors "github.com/wippyai/cwasm/errors"
)

// Global is a single global variable.
type Global struct {
	Value   Value
	Mutable bool
}

// Globals is the store backing global.get and global.set.
// It is not safe for concurrent use.
type Globals struct {
	items []Global
}

// NewGlobals creates a store holding the given globals in index order.
func NewGlobals(items ...Global) *Globals {
	return &Globals{items: append([]Global(nil), items...)}
}

// Define appends a global and returns its index.
func (g *Globals) Define(v Value, mutable bool) uint32 {
	g.items = append(g.items, Global{Value: v, Mutable: mutable})
	return uint32(len(g.items) - 1)
}

// Len returns the number of globals.
func (g *Globals) Len() int {
	return len(g.items)
}

// Get returns the current value of global idx.
func (g *Globals) Get(idx uint32) (Value, error) {
	if int(idx) >= len(g.items) {
		return Value{}, werrors.OutOfBounds(werrors.PhaseRuntime, "global", int(idx), len(g.items))
	}
	return g.items[idx].Value, nil
}

// Set stores v into global idx. The global must be mutable, and a typed
// global only accepts values of its own type.
func (g *Globals) Set(idx uint32, v Value) error {
	if int(idx) >= len(g.items) {
		return werrors.OutOfBounds(werrors.PhaseRuntime, "global", int(idx), len(g.items))
	}
	cur := &g.items[idx]
	if !cur.Mutable {
		return werrors.New(werrors.PhaseRuntime, werrors.KindImmutable).
			Value(idx).
			Detail("global %d is immutable", idx).
			Build()
	}
	if cur.Value.Typed() && v.Typed() && cur.Value.Type != v.Type {
		return werrors.New(werrors.PhaseRuntime, werrors.KindTypeMismatch).
			Value(idx).
			Detail("global %d has type %s, got %s", idx, cur.Value.Type, v.Type).
			Build()
	}
	if !v.Typed() {
		v.Type = cur.Value.Type
	}
	cur.Value = v
	return nil
}

// Snapshot returns a copy of every global.
func (g *Globals) Snapshot() []Global {
	return append([]Global(nil), g.items...)
}
