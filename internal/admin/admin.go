// Package admin implements the operator command surface of the dispatcher:
// list, stats, enable, disable and help.
package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/core"
)

// Defaults used when no option overrides them
const (
	DefaultThreshold   = 10 // master class
	DefaultMarker      = "!"
	DefaultCommandWord = "dispatcher"
)

var (
	// ErrPermissionDenied is reported when the caller class is below the admin threshold
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnknownCommand is reported for subcommands the interpreter does not know
	ErrUnknownCommand = errors.New("unknown subcommand")
	// ErrInvalidID is reported when enable/disable get a malformed script id
	ErrInvalidID = errors.New("invalid script ID")
)

// Reply is the result of interpreting one command line.
// Handled tells the host to skip its default processing. Lines are sent
// back to the caller as private notices.
type Reply struct {
	Handled bool
	Denied  bool
	Err     error
	Lines   []string
}

func (r *Reply) add(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithThreshold sets the minimum class allowed to run privileged subcommands
func WithThreshold(class int) Option {
	return func(i *Interpreter) { i.threshold = class }
}

// WithMarker sets the command marker shown in usage text
func WithMarker(marker string) Option {
	return func(i *Interpreter) {
		if marker != "" {
			i.marker = marker
		}
	}
}

// WithCommandWord sets the word addressing the dispatcher
func WithCommandWord(word string) Option {
	return func(i *Interpreter) {
		if word != "" {
			i.word = word
		}
	}
}

// WithLogger sets the logger used to audit admin actions
func WithLogger(l *zap.Logger) Option {
	return func(i *Interpreter) {
		if l != nil {
			i.logger = l
		}
	}
}

// Interpreter parses and executes dispatcher admin commands
type Interpreter struct {
	d         *core.Dispatcher
	threshold int
	marker    string
	word      string
	logger    *zap.Logger
}

// New creates an interpreter operating on d
func New(d *core.Dispatcher, opts ...Option) *Interpreter {
	i := &Interpreter{
		d:         d,
		threshold: DefaultThreshold,
		marker:    DefaultMarker,
		word:      DefaultCommandWord,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Threshold returns the configured admin class
func (i *Interpreter) Threshold() int { return i.threshold }

// Addressed reports whether ev is meant for the dispatcher. The command
// must open with the marker the user typed followed by the command word.
// That marker is ev.Prefix when the host reports one, the configured marker
// otherwise.
func (i *Interpreter) Addressed(ev core.HubCommandEvent) bool {
	rest, ok := i.stripMarker(ev)
	if !ok {
		return false
	}
	fields := strings.Fields(rest)
	return len(fields) > 0 && strings.EqualFold(fields[0], i.word)
}

func (i *Interpreter) stripMarker(ev core.HubCommandEvent) (string, bool) {
	marker := ev.Prefix
	if marker == "" {
		marker = i.marker
	}
	return strings.CutPrefix(strings.TrimSpace(ev.Command), marker)
}

// Handle interprets the command carried by ev. Text not addressed to the
// dispatcher yields an unhandled reply so the host can fall through.
func (i *Interpreter) Handle(ev core.HubCommandEvent) Reply {
	if !i.Addressed(ev) {
		return Reply{}
	}

	reply := Reply{Handled: true}
	rest, _ := i.stripMarker(ev)
	args, err := shlex.Split(rest)
	if err != nil {
		reply.Err = fmt.Errorf("parse command: %w", err)
		reply.add("Could not parse command: %v", err)
		return reply
	}
	args = args[1:]

	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	if sub != "help" && ev.Class < i.threshold {
		i.logger.Warn("admin command denied",
			zap.String("nick", ev.Nick),
			zap.Int("class", ev.Class),
			zap.String("command", ev.Command),
		)
		reply.Denied = true
		reply.Err = ErrPermissionDenied
		reply.add("Permission denied. Class %d or higher required.", i.threshold)
		return reply
	}

	switch sub {
	case "":
		reply.add("Usage: %s", i.usage())
	case "list":
		i.list(&reply)
	case "stats":
		i.stats(&reply)
	case "enable", "disable":
		i.toggle(&reply, ev.Nick, sub, args[1:])
	case "help":
		i.help(&reply)
	default:
		reply.Err = fmt.Errorf("%w: %s", ErrUnknownCommand, sub)
		reply.add("Unknown subcommand: %s", sub)
		reply.add("Usage: %s", i.usage())
	}
	return reply
}

func (i *Interpreter) usage() string {
	return fmt.Sprintf("%s%s [list|stats|enable <id>|disable <id>|help]", i.marker, i.word)
}

func (i *Interpreter) list(r *Reply) {
	scripts := i.d.List()
	r.add("Registered scripts (%d):", len(scripts))
	for _, s := range scripts {
		state := "enabled"
		if !s.Enabled {
			state = "disabled"
		}
		hooks := make([]string, len(s.Hooks))
		for n, h := range s.Hooks {
			hooks[n] = string(h)
		}
		bound := strings.Join(hooks, ",")
		if bound == "" {
			bound = "-"
		}
		r.add("  [%s] ID=%d: %s priority=%d hooks=%s registered=%s",
			state, s.ID, s.Name, s.Priority, bound, s.RegisteredAt.UTC().Format(time.RFC3339))
	}
}

func (i *Interpreter) stats(r *Reply) {
	st := i.d.Stats()
	r.add("Dispatcher statistics:")
	r.add("  Registrations: %d", st.Registrations)
	r.add("  Active scripts: %d", st.Active)
	r.add("  Disabled scripts: %d", st.Disabled)
	r.add("  Hook calls:")
	for _, h := range st.Hooks {
		r.add("    %s: %d calls (%d failed, %d handlers)", h.Hook, h.Dispatches, h.Failures, h.Handlers)
	}
	r.add("  Script calls:")
	for _, s := range st.Scripts {
		r.add("    ID=%d %s: %d calls", s.ID, s.Name, s.Total())
		for _, hook := range core.HookNames() {
			if c, ok := s.Calls[hook]; ok {
				r.add("      %s: %d", hook, c)
			}
		}
	}
	r.add("  Totals: %d dispatches, %d script calls, %d failures",
		st.TotalDispatches(), st.TotalCalls(), st.TotalFailures())
}

func (i *Interpreter) toggle(r *Reply, nick, sub string, args []string) {
	if len(args) == 0 {
		r.Err = ErrInvalidID
		r.add("Usage: %s%s %s <id>", i.marker, i.word, sub)
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		r.Err = fmt.Errorf("%w: %q", ErrInvalidID, args[0])
		r.add("Invalid script ID: %s", args[0])
		return
	}
	id := core.ScriptID(n)

	if sub == "enable" {
		err = i.d.Enable(id)
	} else {
		err = i.d.Disable(id)
	}
	if err != nil {
		r.Err = err
		if errors.Is(err, core.ErrNotFound) {
			r.add("Script ID %d not found", id)
		} else {
			r.add("Could not %s script ID %d: %v", sub, id, err)
		}
		return
	}

	i.logger.Info("admin command applied",
		zap.String("nick", nick),
		zap.String("action", sub),
		zap.Uint64("script_id", uint64(id)),
	)
	r.add("Script ID %d %sd", id, sub)
}

func (i *Interpreter) help(r *Reply) {
	prefix := i.marker + i.word
	r.add("Dispatcher commands:")
	r.add("  %-28s - List all registered scripts", prefix+" list")
	r.add("  %-28s - Show dispatcher statistics", prefix+" stats")
	r.add("  %-28s - Enable a script", prefix+" enable <id>")
	r.add("  %-28s - Disable a script", prefix+" disable <id>")
	r.add("  %-28s - Show this help", prefix+" help")
}
