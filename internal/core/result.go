package core

// Action tells the dispatcher what to do after a handler returns
type Action int

const (
	// ActionHalt stops the walk; later handlers do not see the event.
	// It is the zero value so an empty Result halts, matching the
	// hub convention that a falsy return consumes the event. A Result
	// with a non-nil Err is a failure regardless of Action.
	ActionHalt Action = iota
	// ActionContinue passes the event to the next handler
	ActionContinue
	// ActionFailed marks an abnormal handler termination
	ActionFailed
)

func (a Action) String() string {
	switch a {
	case ActionHalt:
		return "halt"
	case ActionContinue:
		return "continue"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single handler invocation
type Result struct {
	Action Action
	Err    error
}

// Continue lets the event propagate to the next handler
func Continue() Result { return Result{Action: ActionContinue} }

// Halt consumes the event
func Halt() Result { return Result{Action: ActionHalt} }

// Failed reports a handler failure. The dispatcher treats it as Continue.
func Failed(err error) Result { return Result{Action: ActionFailed, Err: err} }

// ResultFromCode converts a hub style integer return: 0 halts, anything else continues
func ResultFromCode(code int) Result {
	if code == 0 {
		return Halt()
	}
	return Continue()
}

// Outcome aggregates a whole dispatch walk
type Outcome struct {
	Hook HookName
	// Handled is true when a handler halted propagation
	Handled bool
	// HaltedBy is the id of the script that halted, zero otherwise
	HaltedBy ScriptID
	// Invoked counts the handlers that were called
	Invoked int
	// Failures holds one *HandlerError per failed handler
	Failures []error
}

// Code returns the hub convention for the outcome: 0 when handled, 1 otherwise
func (o Outcome) Code() int {
	if o.Handled {
		return 0
	}
	return 1
}
