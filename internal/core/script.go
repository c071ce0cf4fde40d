package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPriority applies when a script does not pick one
const DefaultPriority = 100

// Handler is the callable a script binds to a hook
type Handler func(ctx context.Context, sc *ScriptContext, ev Event) Result

// CleanupFunc runs once when a script is unregistered
type CleanupFunc func(sc *ScriptContext) error

// On adapts a handler for one concrete event record. The event type is
// checked when the handler runs; a mismatch is reported as a failure.
func On[E Event](fn func(ctx context.Context, sc *ScriptContext, ev E) Result) Handler {
	return func(ctx context.Context, sc *ScriptContext, ev Event) Result {
		typed, ok := ev.(E)
		if !ok {
			var want E
			return Failed(fmt.Errorf("%w: got %T, want %T", ErrEventMismatch, ev, want))
		}
		return fn(ctx, sc, typed)
	}
}

// Script describes a unit of registration
type Script struct {
	// Name is shown in listings, it does not need to be unique
	Name string
	// Hooks maps hook names to handlers. Must be non-nil; an empty map is
	// accepted but the script is never reached by dispatch.
	Hooks   map[HookName]Handler
	Cleanup CleanupFunc
	// Priority orders handlers, lower runs first. Nil means DefaultPriority.
	Priority *int
	// Disabled registers the script without adding it to dispatch
	Disabled bool
}

// Priority returns a pointer suitable for Script.Priority
func Priority(p int) *int {
	return &p
}

// Messenger delivers text back to hub users
type Messenger interface {
	SendPM(nick, message string) error
	SendToAll(message string) error
}

type nopMessenger struct{}

func (nopMessenger) SendPM(string, string) error { return nil }
func (nopMessenger) SendToAll(string) error      { return nil }

// ScriptContext is handed to every handler and cleanup of one script.
// Each registration gets its own context, scripts never share state.
type ScriptContext struct {
	id        ScriptID
	name      string
	logger    *zap.Logger
	clock     clockwork.Clock
	messenger Messenger

	mu     sync.Mutex
	values map[string]any
}

func newScriptContext(id ScriptID, name string, cfg *dispatcherConfig) *ScriptContext {
	loggerName := "script"
	if name != "" {
		loggerName = "script." + name
	}
	return &ScriptContext{
		id:        id,
		name:      name,
		logger:    cfg.logger.Named(loggerName).With(zap.Uint64("script_id", uint64(id))),
		clock:     cfg.clock,
		messenger: cfg.messenger,
		values:    make(map[string]any),
	}
}

// ID returns the script id
func (c *ScriptContext) ID() ScriptID { return c.id }

// Name returns the script display name
func (c *ScriptContext) Name() string { return c.name }

// Logger returns a logger tagged with the script identity
func (c *ScriptContext) Logger() *zap.Logger { return c.logger }

// Clock returns the dispatcher clock
func (c *ScriptContext) Clock() clockwork.Clock { return c.clock }

// Messenger returns the host messenger
func (c *ScriptContext) Messenger() Messenger { return c.messenger }

// Get reads a value from the script's private state
func (c *ScriptContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value in the script's private state
func (c *ScriptContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Update atomically replaces a value using fn
func (c *ScriptContext) Update(key string, fn func(old any, ok bool) any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.values[key]
	v := fn(old, ok)
	c.values[key] = v
	return v
}
