package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerSource raises OnTimer on every tick with the milliseconds elapsed
// since the previous tick
type TimerSource struct {
	hub      *Hub
	clock    clockwork.Clock
	interval time.Duration
}

// NewTimerSource creates a timer source for h ticking on the dispatcher clock
func NewTimerSource(h *Hub, interval time.Duration) (*TimerSource, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("timer interval must be positive, got %s", interval)
	}
	return &TimerSource{hub: h, clock: h.d.Clock(), interval: interval}, nil
}

// Run ticks until ctx is done
func (t *TimerSource) Run(ctx context.Context) error {
	last := t.clock.Now()
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.Chan():
			msec := now.Sub(last).Milliseconds()
			last = now
			t.hub.Timer(ctx, msec)
		}
	}
}
