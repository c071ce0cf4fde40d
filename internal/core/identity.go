package core

import "go.uber.org/atomic"

// ScriptID identifies a registration for the lifetime of the process
type ScriptID uint64

// IDAllocator hands out unique, monotonically increasing script ids.
// Ids start at 1 and are never reused.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns a fresh id
func (a *IDAllocator) Next() ScriptID {
	return ScriptID(a.last.Inc())
}

// Last returns the most recently issued id, zero if none
func (a *IDAllocator) Last() ScriptID {
	return ScriptID(a.last.Load())
}
