package core

import "sort"

// HookStats holds dispatcher level counters for one hook
type HookStats struct {
	Hook       HookName
	Dispatches uint64
	Failures   uint64
	Handlers   int
}

// ScriptStats holds per-hook invocation counts for one script
type ScriptStats struct {
	ID      ScriptID
	Name    string
	Enabled bool
	Calls   map[HookName]uint64
}

// Total returns the number of invocations over all hooks
func (s ScriptStats) Total() uint64 {
	var n uint64
	for _, c := range s.Calls {
		n += c
	}
	return n
}

// Stats is a point-in-time snapshot of the dispatcher
type Stats struct {
	// Registrations counts every Register call that succeeded
	Registrations uint64
	Active        int
	Disabled      int
	// Hooks lists hooks that were dispatched or have handlers, catalogue order
	Hooks   []HookStats
	Scripts []ScriptStats
}

// TotalDispatches sums dispatches over all hooks
func (s Stats) TotalDispatches() uint64 {
	var n uint64
	for _, h := range s.Hooks {
		n += h.Dispatches
	}
	return n
}

// TotalFailures sums handler failures over all hooks
func (s Stats) TotalFailures() uint64 {
	var n uint64
	for _, h := range s.Hooks {
		n += h.Failures
	}
	return n
}

// TotalCalls sums handler invocations over all registered scripts
func (s Stats) TotalCalls() uint64 {
	var n uint64
	for _, sc := range s.Scripts {
		n += sc.Total()
	}
	return n
}

// Stats returns a snapshot of the dispatcher counters
func (d *Dispatcher) Stats() Stats {
	st := Stats{Registrations: d.registrations.Load()}

	d.mu.RLock()
	handlers := make(map[HookName]int, len(d.index))
	for hook, entries := range d.index {
		handlers[hook] = len(entries)
	}
	for _, reg := range d.scripts {
		if reg.enabled {
			st.Active++
		} else {
			st.Disabled++
		}
		calls := make(map[HookName]uint64, len(reg.counters))
		for hook, c := range reg.counters {
			calls[hook] = c.Load()
		}
		st.Scripts = append(st.Scripts, ScriptStats{
			ID:      reg.id,
			Name:    reg.name,
			Enabled: reg.enabled,
			Calls:   calls,
		})
	}
	d.mu.RUnlock()

	sort.Slice(st.Scripts, func(i, j int) bool { return st.Scripts[i].ID < st.Scripts[j].ID })

	for _, h := range hookCatalog {
		c := d.hookStats[h.Name]
		hs := HookStats{
			Hook:       h.Name,
			Dispatches: c.dispatches.Load(),
			Failures:   c.failures.Load(),
			Handlers:   handlers[h.Name],
		}
		if hs.Dispatches == 0 && hs.Handlers == 0 {
			continue
		}
		st.Hooks = append(st.Hooks, hs)
	}
	return st
}
