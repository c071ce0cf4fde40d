// Package hooks holds the scripts bundled with hubhooks and the factory
// registry used to load them into a dispatcher by key.
package hooks

import (
	"strings"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
	"github.com/klauern/hubhooks/internal/store"
)

// Hook is a bundled script that can produce its dispatcher registration
type Hook interface {
	// Key returns the unique identifier for this script
	Key() string
	// Name returns the human-readable name for this script
	Name() string
	// Description returns a description of what this script does
	Description() string
	// Priority returns the priority used when the configuration sets none
	Priority() int
	// Script returns the registration handed to the dispatcher
	Script() core.Script
}

// Deps are the host collaborators available to bundled scripts.
// Store may be nil; scripts then keep their state in memory.
type Deps struct {
	Store  *store.Store
	Logger *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// BaseHook provides common functionality for all bundled scripts
type BaseHook struct {
	key         string
	name        string
	description string
	priority    int
	deps        Deps
}

// NewBaseHook creates a new BaseHook with the given metadata
func NewBaseHook(key, name, description string, priority int, deps Deps) *BaseHook {
	return &BaseHook{
		key:         key,
		name:        name,
		description: description,
		priority:    priority,
		deps:        deps,
	}
}

// Key returns the script key
func (h *BaseHook) Key() string { return h.key }

// Name returns the script name
func (h *BaseHook) Name() string { return h.name }

// Description returns the script description
func (h *BaseHook) Description() string { return h.description }

// Priority returns the default priority
func (h *BaseHook) Priority() int { return h.priority }

// Deps returns the collaborators given at construction
func (h *BaseHook) Deps() Deps { return h.deps }

// script fills in the name and priority shared by every bundled script
func (h *BaseHook) script(hooks map[core.HookName]core.Handler, cleanup core.CleanupFunc) core.Script {
	return core.Script{
		Name:     h.key,
		Hooks:    hooks,
		Cleanup:  cleanup,
		Priority: core.Priority(h.priority),
	}
}

// commandFields splits a hub command into words, dropping the marker the
// user typed
func commandFields(ev core.HubCommandEvent) []string {
	cmd := strings.TrimSpace(ev.Command)
	if ev.Prefix != "" {
		cmd = strings.TrimPrefix(cmd, ev.Prefix)
	}
	return strings.Fields(cmd)
}
