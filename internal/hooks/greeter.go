package hooks

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
)

const defaultGreeting = "Welcome to the hub, {nick}!"

// GreeterHook sends a welcome message to users when they log in
type GreeterHook struct {
	*BaseHook
	message string
}

// NewGreeterHook creates a new greeter script instance.
// The message option may use {nick} as a placeholder.
func NewGreeterHook(deps Deps, opts Options) (Hook, error) {
	base := NewBaseHook("greeter", "Greeter", "Sends a welcome message on login", 100, deps)
	return &GreeterHook{BaseHook: base, message: opts.String("message", defaultGreeting)}, nil
}

// Script returns the dispatcher registration
func (h *GreeterHook) Script() core.Script {
	return h.script(map[core.HookName]core.Handler{
		core.OnUserLogin: core.On(h.onLogin),
	}, h.cleanup)
}

func (h *GreeterHook) onLogin(_ context.Context, sc *core.ScriptContext, ev core.UserLoginEvent) core.Result {
	msg := strings.ReplaceAll(h.message, "{nick}", ev.Nick)
	if err := sc.Messenger().SendPM(ev.Nick, msg); err != nil {
		return core.Failed(err)
	}
	sc.Update("greeted", func(old any, _ bool) any {
		n, _ := old.(int)
		return n + 1
	})
	return core.Continue()
}

func (h *GreeterHook) cleanup(sc *core.ScriptContext) error {
	greeted, _ := sc.Get("greeted")
	n, _ := greeted.(int)
	sc.Logger().Info("greeter unloaded", zap.Int("greeted", n))
	return nil
}
