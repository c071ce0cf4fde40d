// Package hub plays the host side of the dispatcher: it raises hooks,
// routes hub commands to scripts and the admin interpreter, and drives
// timer and replay trigger sources.
package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/admin"
	"github.com/klauern/hubhooks/internal/core"
)

// Hub owns a dispatcher and the collaborators the host provides to it
type Hub struct {
	d         *core.Dispatcher
	admin     *admin.Interpreter
	messenger core.Messenger
	logger    *zap.Logger

	mu   sync.Mutex
	last core.Stats
}

// New creates a hub. messenger should be the one the dispatcher was built
// with so admin replies and script notices share one channel.
func New(d *core.Dispatcher, a *admin.Interpreter, messenger core.Messenger, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		d:         d,
		admin:     a,
		messenger: messenger,
		logger:    logger.Named("hub"),
	}
}

// Dispatcher returns the hub's dispatcher
func (h *Hub) Dispatcher() *core.Dispatcher { return h.d }

// Raise dispatches any event to the scripts
func (h *Hub) Raise(ctx context.Context, ev core.Event) core.Outcome {
	return h.d.Dispatch(ctx, ev)
}

// Timer raises OnTimer
func (h *Hub) Timer(ctx context.Context, msec int64) core.Outcome {
	return h.Raise(ctx, core.TimerEvent{Msec: msec})
}

// Chat raises OnParsedMsgChat
func (h *Hub) Chat(ctx context.Context, nick, message string) core.Outcome {
	return h.Raise(ctx, core.ChatEvent{Nick: nick, Message: message})
}

// PrivateMessage raises OnParsedMsgPM
func (h *Hub) PrivateMessage(ctx context.Context, nick, message, to string) core.Outcome {
	return h.Raise(ctx, core.PrivateMessageEvent{Nick: nick, Message: message, OtherNick: to})
}

// Login raises OnUserLogin
func (h *Hub) Login(ctx context.Context, nick string) core.Outcome {
	return h.Raise(ctx, core.UserLoginEvent{Nick: nick})
}

// Logout raises OnUserLogout
func (h *Hub) Logout(ctx context.Context, nick string) core.Outcome {
	return h.Raise(ctx, core.UserLogoutEvent{Nick: nick})
}

// CommandResult describes how a hub command was processed
type CommandResult struct {
	// Handled tells the host to skip its default command processing
	Handled bool
	// Outcome of the OnHubCommand dispatch to scripts
	Outcome core.Outcome
	// Reply is set when the admin interpreter saw the command
	Reply *admin.Reply
}

// HubCommand offers the command to scripts first. If none of them halts,
// the admin interpreter gets it and its reply lines are sent back to the
// caller as private notices.
func (h *Hub) HubCommand(ctx context.Context, ev core.HubCommandEvent) CommandResult {
	res := CommandResult{Outcome: h.d.Dispatch(ctx, ev)}
	if res.Outcome.Handled {
		res.Handled = true
		return res
	}
	if h.admin == nil {
		return res
	}

	reply := h.admin.Handle(ev)
	if !reply.Handled {
		return res
	}
	res.Handled = true
	res.Reply = &reply
	for _, line := range reply.Lines {
		if err := h.messenger.SendPM(ev.Nick, line); err != nil {
			h.logger.Warn("cannot deliver admin reply", zap.String("nick", ev.Nick), zap.Error(err))
			break
		}
	}
	return res
}

// Shutdown unloads every script, running their cleanups. The statistics
// taken just before unloading remain available from LastStats.
func (h *Hub) Shutdown() int {
	st := h.d.Stats()
	h.mu.Lock()
	h.last = st
	h.mu.Unlock()

	n := h.d.UnregisterAll()
	h.logger.Info("hub stopped", zap.Int("unloaded", n))
	return n
}

// LastStats returns the statistics recorded by the last Shutdown
func (h *Hub) LastStats() core.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
