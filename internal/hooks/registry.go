package hooks

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// HookFactory creates a bundled script from its collaborators and options
type HookFactory func(deps Deps, opts Options) (Hook, error)

// Registry manages bundled script factories by key
type Registry struct {
	mu        sync.RWMutex
	factories map[string]HookFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]HookFactory)}
}

// Register registers a factory with the given key
func (r *Registry) Register(key string, factory HookFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("hook with key '%s' already registered", key)
	}

	r.factories[key] = factory
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(key string, factory HookFactory) {
	if err := r.Register(key, factory); err != nil {
		panic(err)
	}
}

// RegisterBatch registers several factories, all or none
func (r *Registry) RegisterBatch(hooks map[string]HookFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range hooks {
		if _, exists := r.factories[key]; exists {
			return fmt.Errorf("hook with key '%s' already registered", key)
		}
	}
	for key, factory := range hooks {
		r.factories[key] = factory
	}
	return nil
}

// MustRegisterBatch is like RegisterBatch but panics on error
func (r *Registry) MustRegisterBatch(hooks map[string]HookFactory) {
	if err := r.RegisterBatch(hooks); err != nil {
		panic(err)
	}
}

// Has reports whether key is registered
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// Create creates a script instance by key
func (r *Registry) Create(key string, deps Deps, opts Options) (Hook, error) {
	r.mu.RLock()
	factory, exists := r.factories[key]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("hook with key '%s' not found", key)
	}

	hook, err := factory(deps, opts)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", key, err)
	}
	return hook, nil
}

// Keys returns all registered keys in sorted order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns one default-configured instance per key. Keys whose factory
// fails are left out of the map and reported in the returned error, one
// entry per key in key order.
func (r *Registry) List() (map[string]Hook, error) {
	r.mu.RLock()
	factories := make(map[string]HookFactory, len(r.factories))
	for k, v := range r.factories {
		factories[k] = v
	}
	r.mu.RUnlock()

	result := make(map[string]Hook, len(factories))
	failed := make(map[string]error)
	resultMu := sync.Mutex{}
	var wg sync.WaitGroup

	for key, factory := range factories {
		wg.Go(func() {
			hook, err := factory(Deps{}, nil)
			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				failed[key] = err
				return
			}
			result[key] = hook
		})
	}

	wg.Wait()

	keys := make([]string, 0, len(failed))
	for k := range failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var errs error
	for _, k := range keys {
		errs = multierr.Append(errs, fmt.Errorf("script %s: %w", k, failed[k]))
	}
	return result, errs
}

// Global registry instance
var globalRegistry = NewRegistry()

// RegisterHook registers a factory globally
func RegisterHook(key string, factory HookFactory) error {
	return globalRegistry.Register(key, factory)
}

// CreateHook creates a script by key from the global registry
func CreateHook(key string, deps Deps, opts Options) (Hook, error) {
	return globalRegistry.Create(key, deps, opts)
}

// GetHookKeys returns all registered keys from the global registry
func GetHookKeys() []string {
	return globalRegistry.Keys()
}

// ListHooks returns all scripts from the global registry
func ListHooks() (map[string]Hook, error) {
	return globalRegistry.List()
}

// GetGlobalRegistry returns the global registry instance
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// init registers all bundled scripts using batch registration
func init() {
	builtinHooks := map[string]HookFactory{
		"chatlog":    NewChatLogHook,
		"floodguard": NewFloodGuardHook,
		"greeter":    NewGreeterHook,
		"seen":       NewSeenHook,
		"uptime":     NewUptimeHook,
	}
	globalRegistry.MustRegisterBatch(builtinHooks)
}
