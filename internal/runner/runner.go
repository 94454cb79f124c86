package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ha-tools/deadman/internal/logging"
)

// Supervisor is the watchdog lifecycle driven by the control loop.
type Supervisor interface {
	Activate()
	Keepalive()
	Disable()
}

// Runner drives a Supervisor: activate once, keepalive every interval,
// disable on shutdown. One goroutine, no overlap.
type Runner struct {
	wd       Supervisor
	interval time.Duration
}

// New creates a Runner pinging wd every interval (the loop_wait of the
// surrounding configuration).
func New(wd Supervisor, interval time.Duration) *Runner {
	return &Runner{wd: wd, interval: interval}
}

// Run blocks until ctx is cancelled. The supervisor is disabled on the way
// out, whatever the reason for stopping.
func (r *Runner) Run(ctx context.Context) error {
	r.wd.Activate()
	defer r.wd.Disable()

	logging.Info("control loop started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("control loop stopping")
			return nil
		case <-ticker.C:
			r.wd.Keepalive()
		}
	}
}
