package chat

import (
	"context"
	"errors"
	"time"
)

// Poller reloads the open chat on a fixed interval.
type Poller struct {
	controller *Controller
	interval   time.Duration
}

// NewPoller creates a poller. A non-positive interval makes Run wait for ctx only.
func NewPoller(c *Controller, interval time.Duration) *Poller {
	return &Poller{controller: c, interval: interval}
}

// Run polls until ctx is done. The first failure of a streak is reported by the controller,
// repeats stay silent until a poll succeeds. Polling continues either way.
func (p *Poller) Run(ctx context.Context) error {
	if p.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := p.controller.reload(ctx, failing)
			switch {
			case err == nil:
				failing = false
			case errors.Is(err, ErrUninitializedSession), errors.Is(err, ErrSuperseded):
			default:
				failing = true
				p.controller.log.Debug().Err(err).Msg("poll reload failed")
			}
		}
	}
}
