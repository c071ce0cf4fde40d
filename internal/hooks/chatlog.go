package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
)

// ChatLogHook writes every chat line and private message to the operator log
type ChatLogHook struct {
	*BaseHook
	includePM bool
}

// NewChatLogHook creates a new chat log script instance
func NewChatLogHook(deps Deps, opts Options) (Hook, error) {
	base := NewBaseHook("chatlog", "Chat Log", "Logs main chat and private messages", 200, deps)
	return &ChatLogHook{
		BaseHook:  base,
		includePM: opts.String("private", "true") != "false",
	}, nil
}

// Script returns the dispatcher registration
func (h *ChatLogHook) Script() core.Script {
	handlers := map[core.HookName]core.Handler{
		core.OnParsedMsgChat: core.On(h.onChat),
	}
	if h.includePM {
		handlers[core.OnParsedMsgPM] = core.On(h.onPM)
	}
	return h.script(handlers, nil)
}

func (h *ChatLogHook) onChat(_ context.Context, sc *core.ScriptContext, ev core.ChatEvent) core.Result {
	sc.Logger().Info("chat", zap.String("nick", ev.Nick), zap.String("message", ev.Message))
	countLine(sc)
	return core.Continue()
}

func (h *ChatLogHook) onPM(_ context.Context, sc *core.ScriptContext, ev core.PrivateMessageEvent) core.Result {
	sc.Logger().Info("private message",
		zap.String("nick", ev.Nick),
		zap.String("to", ev.OtherNick),
		zap.String("message", ev.Message),
	)
	countLine(sc)
	return core.Continue()
}

func countLine(sc *core.ScriptContext) {
	sc.Update("lines", func(old any, _ bool) any {
		n, _ := old.(int)
		return n + 1
	})
}
