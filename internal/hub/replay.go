package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/klauern/hubhooks/internal/core"
)

// EventSpec is one entry of a replay file. Only the fields of the named
// hook's record are used.
type EventSpec struct {
	Hook core.HookName `yaml:"hook"`
	// Delay waits before raising the event, as a Go duration
	Delay string `yaml:"delay,omitempty"`

	Nick      string `yaml:"nick,omitempty"`
	OtherNick string `yaml:"other_nick,omitempty"`
	OpNick    string `yaml:"op_nick,omitempty"`
	Message   string `yaml:"message,omitempty"`
	Query     string `yaml:"query,omitempty"`
	Result    string `yaml:"result,omitempty"`
	IP        string `yaml:"ip,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Back      string `yaml:"back,omitempty"`
	Command   string `yaml:"command,omitempty"`
	Class     int    `yaml:"class,omitempty"`
	InPM      bool   `yaml:"in_pm,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Reason    string `yaml:"reason,omitempty"`
	Tag       string `yaml:"tag,omitempty"`
	Msec      int64  `yaml:"msec,omitempty"`
}

// ReplayFile is the document read by LoadReplay
type ReplayFile struct {
	Events []EventSpec `yaml:"events"`
}

// commandPrefix guesses the marker of a command typed without an explicit prefix
func commandPrefix(spec EventSpec) string {
	if spec.Prefix != "" {
		return spec.Prefix
	}
	r, size := utf8.DecodeRuneInString(spec.Command)
	if size > 0 && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
		return string(r)
	}
	return ""
}

// Event converts the entry to its typed record
func (s EventSpec) Event() (core.Event, error) {
	switch s.Hook {
	case core.OnTimer:
		return core.TimerEvent{Msec: s.Msec}, nil
	case core.OnParsedMsgChat:
		return core.ChatEvent{Nick: s.Nick, Message: s.Message}, nil
	case core.OnParsedMsgPM:
		return core.PrivateMessageEvent{Nick: s.Nick, Message: s.Message, OtherNick: s.OtherNick}, nil
	case core.OnParsedMsgSearch:
		return core.SearchEvent{Nick: s.Nick, Query: s.Query}, nil
	case core.OnParsedMsgSR:
		return core.SearchResultEvent{Nick: s.Nick, Result: s.Result}, nil
	case core.OnParsedMsgMyINFO:
		return core.MyINFOEvent{Nick: s.Nick}, nil
	case core.OnParsedMsgValidateNick:
		return core.ValidateNickEvent{Nick: s.Nick}, nil
	case core.OnParsedMsgConnectToMe:
		return core.ConnectToMeEvent{Nick: s.Nick, IP: s.IP, Port: s.Port}, nil
	case core.OnParsedMsgRevConnectToMe:
		return core.RevConnectToMeEvent{Nick: s.Nick, OtherNick: s.OtherNick}, nil
	case core.OnParsedMsgSupports:
		return core.SupportsEvent{IP: s.IP, Message: s.Message, Back: s.Back}, nil
	case core.OnUserLogin:
		return core.UserLoginEvent{Nick: s.Nick}, nil
	case core.OnUserLogout:
		return core.UserLogoutEvent{Nick: s.Nick}, nil
	case core.OnUserDisconnected:
		return core.UserDisconnectedEvent{Nick: s.Nick}, nil
	case core.OnNewConn:
		return core.NewConnEvent{IP: s.IP}, nil
	case core.OnCloseConn:
		return core.CloseConnEvent{IP: s.IP}, nil
	case core.OnHubCommand:
		return core.HubCommandEvent{Nick: s.Nick, Command: s.Command, Class: s.Class, InPM: s.InPM, Prefix: commandPrefix(s)}, nil
	case core.OnOperatorCommand:
		return core.OperatorCommandEvent{Nick: s.Nick, Command: s.Command, Class: s.Class, InPM: s.InPM}, nil
	case core.OnOperatorKicks:
		return core.OperatorKicksEvent{OpNick: s.OpNick, Nick: s.Nick, Reason: s.Reason}, nil
	case core.OnOperatorDrops:
		return core.OperatorDropsEvent{OpNick: s.OpNick, Nick: s.Nick, Reason: s.Reason}, nil
	case core.OnValidateTag:
		return core.ValidateTagEvent{Nick: s.Nick, Tag: s.Tag}, nil
	case core.OnUserInList:
		return core.UserInListEvent{Nick: s.Nick}, nil
	case core.OnUnknownMsg:
		return core.UnknownMsgEvent{Nick: s.Nick, Message: s.Message}, nil
	case core.OnFlood:
		return core.FloodEvent{Nick: s.Nick, Message: s.Message}, nil
	default:
		return nil, fmt.Errorf("unknown hook %q", s.Hook)
	}
}

// Step is a decoded replay entry
type Step struct {
	Delay time.Duration
	Event core.Event
}

// LoadReplay decodes and validates a replay document
func LoadReplay(r io.Reader) ([]Step, error) {
	var doc ReplayFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse replay: %w", err)
	}

	steps := make([]Step, 0, len(doc.Events))
	for i, spec := range doc.Events {
		ev, err := spec.Event()
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		var delay time.Duration
		if spec.Delay != "" {
			if delay, err = time.ParseDuration(spec.Delay); err != nil || delay < 0 {
				return nil, fmt.Errorf("events[%d]: invalid delay %q", i, spec.Delay)
			}
		}
		steps = append(steps, Step{Delay: delay, Event: ev})
	}
	return steps, nil
}

// LoadReplayFile reads a replay document from path
func LoadReplayFile(path string) ([]Step, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadReplay(f)
}

// Replay raises steps in order. Hub commands go through HubCommand so the
// admin interpreter sees them. progress, when set, is called after each step.
func (h *Hub) Replay(ctx context.Context, steps []Step, progress func()) error {
	clock := h.d.Clock()
	for _, step := range steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(step.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if cmd, ok := step.Event.(core.HubCommandEvent); ok {
			res := h.HubCommand(ctx, cmd)
			h.logger.Debug("hub command", zap.String("command", cmd.Command), zap.Bool("handled", res.Handled))
		} else {
			out := h.Raise(ctx, step.Event)
			h.logger.Debug("event", zap.String("hook", string(step.Event.Hook())), zap.Bool("handled", out.Handled))
		}
		if progress != nil {
			progress()
		}
	}
	return nil
}
