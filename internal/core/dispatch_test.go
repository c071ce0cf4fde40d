package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDispatchNoHandlers(t *testing.T) {
	d := New()
	out := d.Dispatch(context.Background(), ChatEvent{Nick: "u", Message: "hi"})

	if out.Handled || out.Invoked != 0 || out.Code() != 1 {
		t.Errorf("expected unhandled empty outcome, got %+v", out)
	}
	if got := d.Stats().Hooks; len(got) != 1 || got[0].Dispatches != 1 {
		t.Errorf("dispatch without handlers must still be counted: %+v", got)
	}
}

func TestDispatchPriorityOrdering(t *testing.T) {
	orders := map[string][]int{
		"ascending":  {10, 50, 100},
		"descending": {100, 50, 10},
		"mixed":      {50, 100, 10},
	}

	for name, priorities := range orders {
		t.Run(name, func(t *testing.T) {
			d := New()
			log := &callLog{}
			for _, p := range priorities {
				label := map[int]string{10: "p10", 50: "p50", 100: "p100"}[p]
				d.MustRegister(chatScript(label, p, log.handler(label, Continue())))
			}

			out := d.Dispatch(context.Background(), ChatEvent{})
			if diff := cmp.Diff([]string{"p10", "p50", "p100"}, log.get()); diff != "" {
				t.Errorf("unexpected order (-want +got):\n%s", diff)
			}
			if out.Handled || out.Invoked != 3 {
				t.Errorf("unexpected outcome %+v", out)
			}
		})
	}
}

func TestDispatchTieBreakByRegistrationOrder(t *testing.T) {
	d := New()
	log := &callLog{}
	d.MustRegister(chatScript("late-priority", 200, log.handler("late-priority", Continue())))
	d.MustRegister(chatScript("first", 100, log.handler("first", Continue())))
	d.MustRegister(chatScript("second", 100, log.handler("second", Continue())))
	d.MustRegister(chatScript("early", 5, log.handler("early", Continue())))
	d.MustRegister(chatScript("third", 100, log.handler("third", Continue())))

	for i := 0; i < 3; i++ {
		d.Dispatch(context.Background(), ChatEvent{})
	}

	once := []string{"early", "first", "second", "third", "late-priority"}
	want := append(append(append([]string{}, once...), once...), once...)
	if diff := cmp.Diff(want, log.get()); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDispatchTieBreakSurvivesReenable(t *testing.T) {
	d := New()
	log := &callLog{}
	first := d.MustRegister(chatScript("first", 100, log.handler("first", Continue())))
	d.MustRegister(chatScript("second", 100, log.handler("second", Continue())))

	if err := d.Disable(first); err != nil {
		t.Fatal(err)
	}
	if err := d.Enable(first); err != nil {
		t.Fatal(err)
	}
	d.Dispatch(context.Background(), ChatEvent{})

	if diff := cmp.Diff([]string{"first", "second"}, log.get()); diff != "" {
		t.Errorf("re-enabled script lost its registration slot (-want +got):\n%s", diff)
	}
}

func TestDispatchFanOutCompleteness(t *testing.T) {
	const n = 25
	d := New()
	calls := make([]int, n)
	for i := 0; i < n; i++ {
		d.MustRegister(chatScript("s", i%4, func(context.Context, *ScriptContext, Event) Result {
			calls[i]++
			return Continue()
		}))
	}

	out := d.Dispatch(context.Background(), ChatEvent{})
	if out.Invoked != n || out.Handled {
		t.Fatalf("unexpected outcome %+v", out)
	}
	for i, c := range calls {
		if c != 1 {
			t.Errorf("script %d invoked %d times, want 1", i, c)
		}
	}
}

func TestDispatchStopPropagation(t *testing.T) {
	tests := []struct {
		name       string
		first      Result
		wantCalls  []string
		wantHandle bool
	}{
		{name: "halt", first: Halt(), wantCalls: []string{"first"}, wantHandle: true},
		{name: "zero result halts", first: Result{}, wantCalls: []string{"first"}, wantHandle: true},
		{name: "code zero halts", first: ResultFromCode(0), wantCalls: []string{"first"}, wantHandle: true},
		{name: "continue", first: Continue(), wantCalls: []string{"first", "second", "third"}},
		{name: "code one continues", first: ResultFromCode(1), wantCalls: []string{"first", "second", "third"}},
		{name: "unknown action continues", first: Result{Action: Action(42)}, wantCalls: []string{"first", "second", "third"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			log := &callLog{}
			firstID := d.MustRegister(chatScript("first", 1, log.handler("first", tt.first)))
			d.MustRegister(chatScript("second", 2, log.handler("second", Continue())))
			d.MustRegister(chatScript("third", 3, log.handler("third", Continue())))

			out := d.Dispatch(context.Background(), ChatEvent{})
			if diff := cmp.Diff(tt.wantCalls, log.get()); diff != "" {
				t.Errorf("unexpected calls (-want +got):\n%s", diff)
			}
			if out.Handled != tt.wantHandle {
				t.Errorf("expected handled=%v, got %v", tt.wantHandle, out.Handled)
			}
			if tt.wantHandle {
				if out.HaltedBy != firstID || out.Code() != 0 {
					t.Errorf("unexpected halted outcome %+v", out)
				}
			} else if out.Code() != 1 {
				t.Errorf("expected code 1, got %d", out.Code())
			}
		})
	}
}

func TestDispatchHaltCountsHaltingHandler(t *testing.T) {
	d := New()
	blocker := d.MustRegister(chatScript("blocker", 1, func(context.Context, *ScriptContext, Event) Result { return Halt() }))
	later := d.MustRegister(chatScript("later", 2, func(context.Context, *ScriptContext, Event) Result { return Continue() }))

	d.Dispatch(context.Background(), ChatEvent{})

	bi, _ := d.Info(blocker)
	li, _ := d.Info(later)
	if bi.Calls[OnParsedMsgChat] != 1 {
		t.Errorf("halting handler must be counted, got %d", bi.Calls[OnParsedMsgChat])
	}
	if li.Calls[OnParsedMsgChat] != 0 {
		t.Errorf("skipped handler must not be counted, got %d", li.Calls[OnParsedMsgChat])
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	d, logs := newObservedDispatcher(t)
	log := &callLog{}

	calls := 0
	flaky := d.MustRegister(chatScript("flaky", 50, func(context.Context, *ScriptContext, Event) Result {
		calls++
		log.add("flaky")
		switch calls {
		case 2:
			panic("second call explodes")
		case 3:
			return Failed(errors.New("third call fails"))
		case 4:
			return Failed(nil)
		}
		return Continue()
	}))
	d.MustRegister(chatScript("before", 10, log.handler("before", Continue())))
	d.MustRegister(chatScript("after", 90, log.handler("after", Continue())))

	ctx := context.Background()
	var failures []error
	for i := 0; i < 5; i++ {
		out := d.Dispatch(ctx, ChatEvent{})
		if out.Handled {
			t.Fatalf("dispatch %d: failure must be treated as continue", i+1)
		}
		if out.Invoked != 3 {
			t.Fatalf("dispatch %d: expected 3 invocations, got %d", i+1, out.Invoked)
		}
		failures = append(failures, out.Failures...)
	}

	once := []string{"before", "flaky", "after"}
	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, once...)
	}
	if diff := cmp.Diff(want, log.get()); diff != "" {
		t.Errorf("unexpected calls (-want +got):\n%s", diff)
	}

	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(failures))
	}
	for _, err := range failures {
		if !errors.Is(err, ErrHandlerFailure) {
			t.Errorf("failure %v does not match ErrHandlerFailure", err)
		}
		var herr *HandlerError
		if !errors.As(err, &herr) || herr.ScriptID != flaky || herr.Hook != OnParsedMsgChat {
			t.Errorf("unexpected failure detail %v", err)
		}
	}
	var perr *PanicError
	if !errors.As(failures[0], &perr) || perr.Value != "second call explodes" || perr.Stack == "" {
		t.Errorf("expected panic detail on first failure, got %v", failures[0])
	}

	info, _ := d.Info(flaky)
	if !info.Enabled {
		t.Error("failing script must not be disabled")
	}
	if info.Calls[OnParsedMsgChat] != 5 {
		t.Errorf("failing calls must be counted, got %d", info.Calls[OnParsedMsgChat])
	}

	st := d.Stats()
	if st.TotalFailures() != 3 {
		t.Errorf("expected 3 recorded failures, got %d", st.TotalFailures())
	}
	if logs.FilterMessage("hook handler failed").Len() != 3 {
		t.Errorf("expected 3 failure reports in the operator log, got %d", logs.FilterMessage("hook handler failed").Len())
	}
}

func TestTypedHandlerMismatchFailsAtInvocation(t *testing.T) {
	d := New()
	got := ""
	id := d.MustRegister(Script{
		Name: "typed",
		Hooks: map[HookName]Handler{
			OnParsedMsgChat: On(func(_ context.Context, _ *ScriptContext, ev ChatEvent) Result {
				got = ev.Nick + ": " + ev.Message
				return Continue()
			}),
			// bound to the wrong hook on purpose
			OnUserLogin: On(func(context.Context, *ScriptContext, ChatEvent) Result {
				return Continue()
			}),
		},
	})

	d.Dispatch(context.Background(), ChatEvent{Nick: "alice", Message: "hello"})
	if got != "alice: hello" {
		t.Errorf("typed handler got %q", got)
	}

	out := d.Dispatch(context.Background(), UserLoginEvent{Nick: "alice"})
	if len(out.Failures) != 1 || !errors.Is(out.Failures[0], ErrEventMismatch) {
		t.Fatalf("expected an event mismatch failure, got %v", out.Failures)
	}
	if info, _ := d.Info(id); !info.Enabled {
		t.Error("mismatching script must stay enabled")
	}
}

func TestDispatchWalksSnapshot(t *testing.T) {
	d := New()
	log := &callLog{}
	var second ScriptID

	d.MustRegister(chatScript("mutator", 1, func(context.Context, *ScriptContext, Event) Result {
		log.add("mutator")
		// mutations from inside a handler must not deadlock nor change this walk
		d.MustRegister(chatScript("newcomer", 0, log.handler("newcomer", Continue())))
		if err := d.Disable(second); err != nil {
			t.Errorf("disable from handler failed: %v", err)
		}
		return Continue()
	}))
	second = d.MustRegister(chatScript("second", 2, log.handler("second", Continue())))

	d.Dispatch(context.Background(), ChatEvent{})
	if diff := cmp.Diff([]string{"mutator", "second"}, log.get()); diff != "" {
		t.Errorf("walk observed a mid-walk change (-want +got):\n%s", diff)
	}

	// the next walk sees the new state
	if diff := cmp.Diff([]ScriptID{3, 1}, d.Handlers(OnParsedMsgChat)); diff != "" {
		t.Errorf("unexpected index after mutation (-want +got):\n%s", diff)
	}
}

func TestDispatchSkipsScriptUnregisteredMidWalk(t *testing.T) {
	d := New()
	log := &callLog{}
	var victim ScriptID
	cleanups := 0

	d.MustRegister(chatScript("killer", 1, func(context.Context, *ScriptContext, Event) Result {
		log.add("killer")
		if err := d.Unregister(victim); err != nil {
			t.Errorf("unregister from handler failed: %v", err)
		}
		return Continue()
	}))
	victim = d.MustRegister(Script{
		Name:     "victim",
		Priority: Priority(2),
		Hooks:    map[HookName]Handler{OnParsedMsgChat: log.handler("victim", Continue())},
		Cleanup: func(*ScriptContext) error {
			cleanups++
			log.add("victim cleanup")
			return nil
		},
	})
	d.MustRegister(chatScript("bystander", 3, log.handler("bystander", Continue())))

	out := d.Dispatch(context.Background(), ChatEvent{})

	want := []string{"killer", "victim cleanup", "bystander"}
	if diff := cmp.Diff(want, log.get()); diff != "" {
		t.Errorf("handler ran after its script was unregistered (-want +got):\n%s", diff)
	}
	if cleanups != 1 {
		t.Errorf("expected one cleanup, got %d", cleanups)
	}
	if out.Invoked != 2 || out.Handled {
		t.Errorf("unexpected outcome %+v", out)
	}
	if got := d.Stats().TotalCalls(); got != 2 {
		t.Errorf("skipped handler must not be counted, got %d calls", got)
	}
}

func TestDispatchSkipsScriptUnregisteredConcurrently(t *testing.T) {
	d := New()
	release := make(chan struct{})
	entered := make(chan struct{})
	victimRan := false

	d.MustRegister(chatScript("gate", 1, func(context.Context, *ScriptContext, Event) Result {
		close(entered)
		<-release
		return Continue()
	}))
	victim := d.MustRegister(chatScript("victim", 2, func(context.Context, *ScriptContext, Event) Result {
		victimRan = true
		return Continue()
	}))

	done := make(chan Outcome)
	go func() { done <- d.Dispatch(context.Background(), ChatEvent{}) }()

	<-entered
	if err := d.Unregister(victim); err != nil {
		t.Fatal(err)
	}
	close(release)

	out := <-done
	if victimRan {
		t.Error("in-flight dispatch reached a script unregistered from another goroutine")
	}
	if out.Invoked != 1 {
		t.Errorf("expected 1 invocation, got %d", out.Invoked)
	}
}

func TestDispatchResultErrorIsFailure(t *testing.T) {
	d, logs := newObservedDispatcher(t)
	log := &callLog{}
	errBoom := errors.New("boom")

	tests := []struct {
		name   string
		result Result
	}{
		{name: "no action", result: Result{Err: errBoom}},
		{name: "halt", result: Result{Action: ActionHalt, Err: errBoom}},
		{name: "continue", result: Result{Action: ActionContinue, Err: errBoom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			log := &callLog{}
			id := d.MustRegister(chatScript("reporter", 1, log.handler("reporter", tt.result)))
			d.MustRegister(chatScript("next", 2, log.handler("next", Continue())))

			out := d.Dispatch(context.Background(), ChatEvent{})
			if out.Handled {
				t.Error("a reported error must not halt the walk")
			}
			if diff := cmp.Diff([]string{"reporter", "next"}, log.get()); diff != "" {
				t.Errorf("unexpected calls (-want +got):\n%s", diff)
			}
			if len(out.Failures) != 1 || !errors.Is(out.Failures[0], errBoom) {
				t.Fatalf("expected the reported error as a failure, got %v", out.Failures)
			}
			var herr *HandlerError
			if !errors.As(out.Failures[0], &herr) || herr.ScriptID != id {
				t.Errorf("unexpected failure detail %v", out.Failures[0])
			}
		})
	}

	// the failure path also reaches the operator log and the counters
	d.MustRegister(chatScript("reporter", 1, log.handler("reporter", Result{Err: errBoom})))
	d.Dispatch(context.Background(), ChatEvent{})
	if d.Stats().TotalFailures() != 1 {
		t.Errorf("expected 1 recorded failure, got %d", d.Stats().TotalFailures())
	}
	if logs.FilterMessage("hook handler failed").Len() != 1 {
		t.Errorf("expected the failure in the operator log")
	}
}

func TestDispatchPassesEventAndContext(t *testing.T) {
	d := New()
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "host")

	var gotEvent Event
	var gotValue any
	d.MustRegister(Script{
		Name: "cmd",
		Hooks: map[HookName]Handler{OnHubCommand: func(ctx context.Context, _ *ScriptContext, ev Event) Result {
			gotEvent = ev
			gotValue = ctx.Value(ctxKey{})
			return Continue()
		}},
	})

	ev := HubCommandEvent{Nick: "op", Command: "dispatcher list", Class: 10, InPM: true, Prefix: "!"}
	d.Dispatch(ctx, ev)

	if gotEvent != ev {
		t.Errorf("handler got %#v, want %#v", gotEvent, ev)
	}
	if gotValue != "host" {
		t.Errorf("handler did not receive the caller's context")
	}
}

func TestStatsSnapshot(t *testing.T) {
	d := New()
	a := d.MustRegister(Script{
		Name: "a",
		Hooks: map[HookName]Handler{
			OnParsedMsgChat: func(context.Context, *ScriptContext, Event) Result { return Continue() },
			OnTimer:         func(context.Context, *ScriptContext, Event) Result { return Failed(errors.New("x")) },
		},
	})
	b := d.MustRegister(chatScript("b", 200, func(context.Context, *ScriptContext, Event) Result { return Continue() }))
	if err := d.Disable(b); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	d.Dispatch(ctx, ChatEvent{})
	d.Dispatch(ctx, ChatEvent{})
	d.Dispatch(ctx, TimerEvent{Msec: 100})
	d.Dispatch(ctx, UserLogoutEvent{Nick: "n"})

	st := d.Stats()
	if st.Registrations != 2 || st.Active != 1 || st.Disabled != 1 {
		t.Errorf("unexpected script counts %+v", st)
	}

	wantHooks := []HookStats{
		{Hook: OnTimer, Dispatches: 1, Failures: 1, Handlers: 1},
		{Hook: OnParsedMsgChat, Dispatches: 2, Handlers: 1},
		{Hook: OnUserLogout, Dispatches: 1},
	}
	if diff := cmp.Diff(wantHooks, st.Hooks); diff != "" {
		t.Errorf("unexpected hook stats (-want +got):\n%s", diff)
	}

	wantScripts := []ScriptStats{
		{ID: a, Name: "a", Enabled: true, Calls: map[HookName]uint64{OnParsedMsgChat: 2, OnTimer: 1}},
		{ID: b, Name: "b", Enabled: false, Calls: map[HookName]uint64{OnParsedMsgChat: 0}},
	}
	if diff := cmp.Diff(wantScripts, st.Scripts); diff != "" {
		t.Errorf("unexpected script stats (-want +got):\n%s", diff)
	}
	if st.TotalCalls() != 3 || st.TotalDispatches() != 4 {
		t.Errorf("unexpected totals: calls=%d dispatches=%d", st.TotalCalls(), st.TotalDispatches())
	}
}
