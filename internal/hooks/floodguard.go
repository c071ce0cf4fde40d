package hooks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
)

// FloodGuardHook stops users who send too many messages in a sliding window
type FloodGuardHook struct {
	*BaseHook
	limit  int
	window time.Duration
}

// NewFloodGuardHook creates a new flood guard script instance.
// Options: limit (messages per window, default 5), window (default 10s).
func NewFloodGuardHook(deps Deps, opts Options) (Hook, error) {
	limit, err := opts.Int("limit", 5)
	if err != nil {
		return nil, err
	}
	window, err := opts.Duration("window", 10*time.Second)
	if err != nil {
		return nil, err
	}
	if limit < 1 || window <= 0 {
		return nil, fmt.Errorf("limit and window must be positive")
	}

	base := NewBaseHook("floodguard", "Flood Guard", "Blocks users that exceed a message rate", 10, deps)
	return &FloodGuardHook{BaseHook: base, limit: limit, window: window}, nil
}

// Script returns the dispatcher registration
func (h *FloodGuardHook) Script() core.Script {
	return h.script(map[core.HookName]core.Handler{
		core.OnParsedMsgChat: core.On(func(_ context.Context, sc *core.ScriptContext, ev core.ChatEvent) core.Result {
			return h.check(sc, ev.Nick)
		}),
		core.OnParsedMsgPM: core.On(func(_ context.Context, sc *core.ScriptContext, ev core.PrivateMessageEvent) core.Result {
			return h.check(sc, ev.Nick)
		}),
		core.OnUserLogout: core.On(func(_ context.Context, sc *core.ScriptContext, ev core.UserLogoutEvent) core.Result {
			sc.Set(windowKey(ev.Nick), []time.Time(nil))
			return core.Continue()
		}),
	}, nil)
}

func windowKey(nick string) string { return "window:" + nick }

// check records one message for nick and halts once the window is full
func (h *FloodGuardHook) check(sc *core.ScriptContext, nick string) core.Result {
	now := sc.Clock().Now()
	cutoff := now.Add(-h.window)

	var count int
	sc.Update(windowKey(nick), func(old any, _ bool) any {
		stamps, _ := old.([]time.Time)
		kept := make([]time.Time, 0, len(stamps)+1)
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		kept = append(kept, now)
		count = len(kept)
		return kept
	})

	if count <= h.limit {
		return core.Continue()
	}

	sc.Logger().Warn("flood detected",
		zap.String("nick", nick),
		zap.Int("messages", count),
		zap.Duration("window", h.window),
	)
	msg := fmt.Sprintf("You are sending messages too fast (limit %d per %s). Message dropped.", h.limit, h.window)
	if err := sc.Messenger().SendPM(nick, msg); err != nil {
		sc.Logger().Warn("cannot warn user", zap.String("nick", nick), zap.Error(err))
	}
	return core.Halt()
}
