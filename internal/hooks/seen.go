package hooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klauern/hubhooks/internal/core"
)

const seenNamespace = "seen"

// SeenHook remembers when users last logged in or out and answers
// "seen <nick>" commands
type SeenHook struct {
	*BaseHook
}

// NewSeenHook creates a new seen script instance
func NewSeenHook(deps Deps, _ Options) (Hook, error) {
	base := NewBaseHook("seen", "Seen", "Tracks user logins and answers the seen command", 50, deps)
	return &SeenHook{BaseHook: base}, nil
}

// Script returns the dispatcher registration
func (h *SeenHook) Script() core.Script {
	return h.script(map[core.HookName]core.Handler{
		core.OnUserLogin: core.On(func(ctx context.Context, sc *core.ScriptContext, ev core.UserLoginEvent) core.Result {
			return h.record(ctx, sc, ev.Nick, "logged in")
		}),
		core.OnUserLogout: core.On(func(ctx context.Context, sc *core.ScriptContext, ev core.UserLogoutEvent) core.Result {
			return h.record(ctx, sc, ev.Nick, "logged out")
		}),
		core.OnHubCommand: core.On(h.onCommand),
	}, nil)
}

// record stores "<action>|<RFC3339 time>" for nick
func (h *SeenHook) record(ctx context.Context, sc *core.ScriptContext, nick, action string) core.Result {
	value := action + "|" + sc.Clock().Now().UTC().Format(time.RFC3339)
	key := strings.ToLower(nick)

	if st := h.deps.Store; st != nil {
		if err := st.Set(ctx, seenNamespace, key, value); err != nil {
			return core.Failed(err)
		}
		return core.Continue()
	}
	sc.Set(seenNamespace+":"+key, value)
	return core.Continue()
}

func (h *SeenHook) lookup(ctx context.Context, sc *core.ScriptContext, nick string) (string, bool, error) {
	key := strings.ToLower(nick)
	if st := h.deps.Store; st != nil {
		return st.Get(ctx, seenNamespace, key)
	}
	v, ok := sc.Get(seenNamespace + ":" + key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (h *SeenHook) onCommand(ctx context.Context, sc *core.ScriptContext, ev core.HubCommandEvent) core.Result {
	fields := commandFields(ev)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "seen") {
		return core.Continue()
	}

	var reply string
	if len(fields) < 2 {
		reply = fmt.Sprintf("Usage: %sseen <nick>", ev.Prefix)
	} else {
		target := fields[1]
		value, ok, err := h.lookup(ctx, sc, target)
		if err != nil {
			return core.Failed(err)
		}
		if ok {
			action, at, _ := strings.Cut(value, "|")
			reply = fmt.Sprintf("%s %s at %s", target, action, at)
		} else {
			reply = fmt.Sprintf("I have not seen %s", target)
		}
	}

	if err := sc.Messenger().SendPM(ev.Nick, reply); err != nil {
		return core.Failed(err)
	}
	return core.Halt()
}
