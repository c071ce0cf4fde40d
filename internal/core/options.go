package core

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Option configures a Dispatcher
type Option func(*dispatcherConfig)

type dispatcherConfig struct {
	logger          *zap.Logger
	clock           clockwork.Clock
	messenger       Messenger
	defaultPriority int
}

func defaultDispatcherConfig() dispatcherConfig {
	return dispatcherConfig{
		logger:          zap.NewNop(),
		clock:           clockwork.NewRealClock(),
		messenger:       nopMessenger{},
		defaultPriority: DefaultPriority,
	}
}

// WithLogger sets the operator log that receives failure reports
func WithLogger(l *zap.Logger) Option {
	return func(c *dispatcherConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock handed to scripts and used for timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(c *dispatcherConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMessenger sets the host messenger handed to scripts
func WithMessenger(m Messenger) Option {
	return func(c *dispatcherConfig) {
		if m != nil {
			c.messenger = m
		}
	}
}

// WithDefaultPriority overrides DefaultPriority for scripts without one
func WithDefaultPriority(p int) Option {
	return func(c *dispatcherConfig) {
		c.defaultPriority = p
	}
}
