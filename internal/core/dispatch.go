package core

import (
	"context"
	"errors"
	"runtime/debug"

	"go.uber.org/zap"
)

var errReportedFailure = errors.New("handler reported failure")

// Dispatch raises ev on every enabled script bound to its hook, in
// ascending (priority, registration order) order. A handler that halts
// stops the walk. Failing handlers are logged and skipped over; nothing
// raised by a handler reaches the caller.
//
// The walk runs over the entry list as it was when Dispatch started and
// holds no lock while handlers run, so handlers may register, unregister,
// enable or disable scripts. Registrations and toggles made mid-walk take
// effect on the next dispatch; a script unregistered mid-walk is skipped
// at once, since its cleanup may already have run.
//
// A Result carrying an error is a failure whatever its Action.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Outcome {
	hook := ev.Hook()
	out := Outcome{Hook: hook}

	counters := d.hookStats[hook]
	if counters != nil {
		counters.dispatches.Inc()
	}

	d.mu.RLock()
	entries := d.index[hook]
	d.mu.RUnlock()

	for _, e := range entries {
		if e.reg.removed.Load() {
			continue
		}
		e.counter.Inc()
		out.Invoked++

		res := d.invoke(ctx, e, ev)
		if res.Err != nil {
			res.Action = ActionFailed
		}
		switch res.Action {
		case ActionHalt:
			out.Handled = true
			out.HaltedBy = e.id
			return out
		case ActionFailed:
			cause := res.Err
			if cause == nil {
				cause = errReportedFailure
			}
			herr := &HandlerError{ScriptID: e.id, Script: e.reg.name, Hook: hook, Err: cause}
			out.Failures = append(out.Failures, herr)
			if counters != nil {
				counters.failures.Inc()
			}
			fields := []zap.Field{
				zap.Uint64("script_id", uint64(e.id)),
				zap.String("script", e.reg.name),
				zap.String("hook", string(hook)),
				zap.Error(cause),
			}
			var perr *PanicError
			if errors.As(cause, &perr) {
				fields = append(fields, zap.String("stack", perr.Stack))
			}
			d.cfg.logger.Error("hook handler failed", fields...)
		}
	}
	return out
}

// invoke runs a single handler inside the failure boundary
func (d *Dispatcher) invoke(ctx context.Context, e indexEntry, ev Event) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed(&PanicError{Value: r, Stack: string(debug.Stack())})
		}
	}()
	return e.handler(ctx, e.reg.sctx, ev)
}
