// Package core implements the hook dispatcher: the registration table, the
// per-hook index derived from it, and the dispatch engine that walks it.
package core

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// registration is one row of the registration table
type registration struct {
	id           ScriptID
	name         string
	priority     int
	seq          uint64
	enabled      bool // guarded by Dispatcher.mu
	hooks        map[HookName]Handler
	cleanup      CleanupFunc
	counters     map[HookName]*atomic.Uint64
	sctx         *ScriptContext
	registeredAt time.Time
	// removed is set under Dispatcher.mu once the script leaves the table
	removed atomic.Bool
}

type hookCounters struct {
	dispatches atomic.Uint64
	failures   atomic.Uint64
}

// Dispatcher holds the registration table and dispatches hook events to
// registered scripts. It is safe for concurrent use.
type Dispatcher struct {
	cfg dispatcherConfig
	ids IDAllocator

	// mu guards scripts, index and seq together
	mu      sync.RWMutex
	scripts map[ScriptID]*registration
	index   hookIndex
	seq     uint64

	registrations atomic.Uint64
	hookStats     map[HookName]*hookCounters
}

// New creates an empty dispatcher
func New(opts ...Option) *Dispatcher {
	cfg := defaultDispatcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	hookStats := make(map[HookName]*hookCounters, len(hookCatalog))
	for _, h := range hookCatalog {
		hookStats[h.Name] = &hookCounters{}
	}
	return &Dispatcher{
		cfg:       cfg,
		scripts:   make(map[ScriptID]*registration),
		index:     make(hookIndex),
		hookStats: hookStats,
	}
}

// Logger returns the operator log
func (d *Dispatcher) Logger() *zap.Logger {
	return d.cfg.logger
}

// Clock returns the clock handed to scripts
func (d *Dispatcher) Clock() clockwork.Clock {
	return d.cfg.clock
}

func validateScript(s Script) error {
	if s.Hooks == nil {
		return invalidf("script %q has no hooks mapping", s.Name)
	}
	for hook, handler := range s.Hooks {
		if !IsValidHook(hook) {
			return invalidf("script %q binds unknown hook %q", s.Name, hook)
		}
		if handler == nil {
			return invalidf("script %q has a nil handler for %s", s.Name, hook)
		}
	}
	return nil
}

// Register adds a script and returns its id. Only malformed scripts fail.
func (d *Dispatcher) Register(s Script) (ScriptID, error) {
	if err := validateScript(s); err != nil {
		return 0, err
	}

	priority := d.cfg.defaultPriority
	if s.Priority != nil {
		priority = *s.Priority
	}

	hooks := make(map[HookName]Handler, len(s.Hooks))
	counters := make(map[HookName]*atomic.Uint64, len(s.Hooks))
	for hook, handler := range s.Hooks {
		hooks[hook] = handler
		counters[hook] = atomic.NewUint64(0)
	}

	id := d.ids.Next()
	reg := &registration{
		id:           id,
		name:         s.Name,
		priority:     priority,
		enabled:      !s.Disabled,
		hooks:        hooks,
		cleanup:      s.Cleanup,
		counters:     counters,
		sctx:         newScriptContext(id, s.Name, &d.cfg),
		registeredAt: d.cfg.clock.Now(),
	}

	d.mu.Lock()
	d.seq++
	reg.seq = d.seq
	d.scripts[id] = reg
	if reg.enabled {
		d.index.add(reg)
	}
	d.mu.Unlock()
	d.registrations.Inc()

	if len(hooks) == 0 {
		d.cfg.logger.Warn("registered script binds no hooks",
			zap.Uint64("script_id", uint64(id)), zap.String("script", s.Name))
	}
	d.cfg.logger.Info("registered script",
		zap.Uint64("script_id", uint64(id)),
		zap.String("script", s.Name),
		zap.Int("hooks", len(hooks)),
		zap.Int("priority", priority),
		zap.Bool("enabled", reg.enabled))
	return id, nil
}

// MustRegister is like Register but panics on error
func (d *Dispatcher) MustRegister(s Script) ScriptID {
	id, err := d.Register(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Unregister removes a script and then runs its cleanup. The script is out
// of the hook index before cleanup starts, and walks already in flight skip
// it from then on. A failing cleanup is logged and does not keep the script
// registered.
func (d *Dispatcher) Unregister(id ScriptID) error {
	d.mu.Lock()
	reg, ok := d.scripts[id]
	if !ok {
		d.mu.Unlock()
		d.cfg.logger.Warn("unregister of unknown script", zap.Uint64("script_id", uint64(id)))
		return notFound(id)
	}
	if reg.enabled {
		d.index.remove(reg)
	}
	delete(d.scripts, id)
	reg.removed.Store(true)
	d.mu.Unlock()

	if reg.cleanup != nil {
		if err := d.runCleanup(reg); err != nil {
			d.cfg.logger.Error("script cleanup failed",
				zap.Uint64("script_id", uint64(id)),
				zap.String("script", reg.name),
				zap.Error(err))
		}
	}
	d.cfg.logger.Info("unregistered script",
		zap.Uint64("script_id", uint64(id)), zap.String("script", reg.name))
	return nil
}

func (d *Dispatcher) runCleanup(reg *registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CleanupError{
				ScriptID: reg.id,
				Script:   reg.name,
				Err:      &PanicError{Value: r, Stack: string(debug.Stack())},
			}
		}
	}()
	if cerr := reg.cleanup(reg.sctx); cerr != nil {
		return &CleanupError{ScriptID: reg.id, Script: reg.name, Err: cerr}
	}
	return nil
}

// UnregisterAll removes every script in id order, running each cleanup.
// It returns the number of scripts removed.
func (d *Dispatcher) UnregisterAll() int {
	d.mu.RLock()
	ids := make([]ScriptID, 0, len(d.scripts))
	for id := range d.scripts {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	removed := 0
	for _, id := range ids {
		// a cleanup may already have unregistered a sibling
		if err := d.Unregister(id); err == nil {
			removed++
		}
	}
	return removed
}

// Enable puts a disabled script back into dispatch
func (d *Dispatcher) Enable(id ScriptID) error {
	return d.setEnabled(id, true)
}

// Disable takes a script out of dispatch without unregistering it
func (d *Dispatcher) Disable(id ScriptID) error {
	return d.setEnabled(id, false)
}

func (d *Dispatcher) setEnabled(id ScriptID, enabled bool) error {
	d.mu.Lock()
	reg, ok := d.scripts[id]
	if !ok {
		d.mu.Unlock()
		return notFound(id)
	}
	changed := reg.enabled != enabled
	if changed {
		reg.enabled = enabled
		if enabled {
			d.index.add(reg)
		} else {
			d.index.remove(reg)
		}
	}
	d.mu.Unlock()

	if changed {
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		d.cfg.logger.Info(fmt.Sprintf("%s script", state),
			zap.Uint64("script_id", uint64(id)), zap.String("script", reg.name))
	}
	return nil
}

// ScriptInfo describes a registered script
type ScriptInfo struct {
	ID           ScriptID
	Name         string
	Priority     int
	Enabled      bool
	Hooks        []HookName
	HasCleanup   bool
	RegisteredAt time.Time
	Calls        map[HookName]uint64
}

func (r *registration) info() ScriptInfo {
	hooks := make([]HookName, 0, len(r.hooks))
	calls := make(map[HookName]uint64, len(r.hooks))
	for hook := range r.hooks {
		hooks = append(hooks, hook)
		calls[hook] = r.counters[hook].Load()
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i] < hooks[j] })
	return ScriptInfo{
		ID:           r.id,
		Name:         r.name,
		Priority:     r.priority,
		Enabled:      r.enabled,
		Hooks:        hooks,
		HasCleanup:   r.cleanup != nil,
		RegisteredAt: r.registeredAt,
		Calls:        calls,
	}
}

// Info returns a description of one script
func (d *Dispatcher) Info(id ScriptID) (ScriptInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	reg, ok := d.scripts[id]
	if !ok {
		return ScriptInfo{}, notFound(id)
	}
	return reg.info(), nil
}

// List returns all registered scripts ordered by id
func (d *Dispatcher) List() []ScriptInfo {
	d.mu.RLock()
	out := make([]ScriptInfo, 0, len(d.scripts))
	for _, reg := range d.scripts {
		out = append(out, reg.info())
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered scripts
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.scripts)
}

// Handlers returns the ids of the scripts a dispatch of hook would reach, in order
func (d *Dispatcher) Handlers(hook HookName) []ScriptID {
	d.mu.RLock()
	entries := d.index[hook]
	d.mu.RUnlock()

	ids := make([]ScriptID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}
