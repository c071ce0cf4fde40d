package core

import (
	"sort"

	"go.uber.org/atomic"
)

// indexEntry is one (script, handler) pair eligible for a hook
type indexEntry struct {
	priority int
	seq      uint64
	id       ScriptID
	handler  Handler
	counter  *atomic.Uint64
	reg      *registration
}

func (e indexEntry) less(o indexEntry) bool {
	if e.priority != o.priority {
		return e.priority < o.priority
	}
	if e.seq != o.seq {
		return e.seq < o.seq
	}
	return e.id < o.id
}

// hookIndex is the per-hook ordered view over enabled registrations.
// Published slices are never modified in place: every change builds a new
// slice, so a reader holding an old slice keeps a consistent snapshot.
type hookIndex map[HookName][]indexEntry

func (idx hookIndex) add(reg *registration) {
	for hook, handler := range reg.hooks {
		entry := indexEntry{
			priority: reg.priority,
			seq:      reg.seq,
			id:       reg.id,
			handler:  handler,
			counter:  reg.counters[hook],
			reg:      reg,
		}
		old := idx[hook]
		pos := sort.Search(len(old), func(i int) bool { return entry.less(old[i]) })
		next := make([]indexEntry, 0, len(old)+1)
		next = append(next, old[:pos]...)
		next = append(next, entry)
		next = append(next, old[pos:]...)
		idx[hook] = next
	}
}

func (idx hookIndex) remove(reg *registration) {
	for hook := range reg.hooks {
		old := idx[hook]
		next := make([]indexEntry, 0, len(old))
		for _, e := range old {
			if e.id != reg.id {
				next = append(next, e)
			}
		}
		if len(next) == 0 {
			delete(idx, hook)
			continue
		}
		idx[hook] = next
	}
}
