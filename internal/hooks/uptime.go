package hooks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
)

const uptimeNamespace = "uptime"

type uptimeState struct {
	elapsed time.Duration
	ticks   uint64
}

// UptimeHook accumulates timer ticks and answers the "uptime" command
type UptimeHook struct {
	*BaseHook
}

// NewUptimeHook creates a new uptime script instance
func NewUptimeHook(deps Deps, _ Options) (Hook, error) {
	base := NewBaseHook("uptime", "Uptime", "Tracks hub uptime from timer ticks", 100, deps)
	return &UptimeHook{BaseHook: base}, nil
}

// Script returns the dispatcher registration
func (h *UptimeHook) Script() core.Script {
	return h.script(map[core.HookName]core.Handler{
		core.OnTimer:      core.On(h.onTimer),
		core.OnHubCommand: core.On(h.onCommand),
	}, h.cleanup)
}

func (h *UptimeHook) state(sc *core.ScriptContext) uptimeState {
	v, _ := sc.Get(uptimeNamespace)
	st, _ := v.(uptimeState)
	return st
}

func (h *UptimeHook) onTimer(_ context.Context, sc *core.ScriptContext, ev core.TimerEvent) core.Result {
	sc.Update(uptimeNamespace, func(old any, _ bool) any {
		st, _ := old.(uptimeState)
		st.elapsed += time.Duration(ev.Msec) * time.Millisecond
		st.ticks++
		return st
	})
	return core.Continue()
}

func (h *UptimeHook) onCommand(ctx context.Context, sc *core.ScriptContext, ev core.HubCommandEvent) core.Result {
	fields := commandFields(ev)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "uptime") {
		return core.Continue()
	}

	st := h.state(sc)
	reply := fmt.Sprintf("Hub uptime: %s (%d ticks)", st.elapsed.Truncate(time.Second), st.ticks)
	if prev, ok := h.previous(ctx); ok {
		reply += fmt.Sprintf(", previous session: %s", prev.Truncate(time.Second))
	}
	if err := sc.Messenger().SendPM(ev.Nick, reply); err != nil {
		return core.Failed(err)
	}
	return core.Halt()
}

// previous returns the uptime saved by the last unload, if any
func (h *UptimeHook) previous(ctx context.Context) (time.Duration, bool) {
	if h.deps.Store == nil {
		return 0, false
	}
	v, ok, err := h.deps.Store.Get(ctx, uptimeNamespace, "last_session_ms")
	if err != nil || !ok {
		return 0, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func (h *UptimeHook) cleanup(sc *core.ScriptContext) error {
	st := h.state(sc)
	sc.Logger().Info("uptime unloaded", zap.Duration("elapsed", st.elapsed), zap.Uint64("ticks", st.ticks))
	if h.deps.Store == nil {
		return nil
	}
	ms := strconv.FormatInt(st.elapsed.Milliseconds(), 10)
	if err := h.deps.Store.Set(context.Background(), uptimeNamespace, "last_session_ms", ms); err != nil {
		return fmt.Errorf("save uptime: %w", err)
	}
	return nil
}
