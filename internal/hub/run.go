package hub

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run drives the timer source and the replay concurrently. The timer stops
// once the replay is done; every script is unloaded before Run returns.
func (h *Hub) Run(ctx context.Context, timer *TimerSource, steps []Step, progress func()) error {
	defer h.Shutdown()

	group, ctx := errgroup.WithContext(ctx)
	timerCtx, stopTimer := context.WithCancel(ctx)
	defer stopTimer()

	if timer != nil {
		group.Go(func() error {
			return timer.Run(timerCtx)
		})
	}
	group.Go(func() error {
		defer stopTimer()
		return h.Replay(ctx, steps, progress)
	})
	return group.Wait()
}
