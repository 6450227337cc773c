package store

import (
	"context"
	"time"

	"github.com/estnia/copyU/internal/logger"
)

// RunSweeper blocks until ctx is cancelled, sweeping expired records on a
// fixed interval and opportunistically after every successful capture.
// Sweep failures are logged and retried on the next tick.
func (s *Store) RunSweeper(ctx context.Context) {
	interval := s.limits.SweepInterval()
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Startup pass: records that expired while the process was down.
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.sweepKick:
			s.sweep(ctx)
		}
	}
}

func (s *Store) sweep(ctx context.Context) {
	n, err := s.RunRetentionSweep(ctx, time.Now(), s.limits.MaxAge())
	if err != nil {
		logger.Error().Err(err).Msg("retention sweep failed, will retry next tick")
		return
	}
	if n > 0 {
		logger.Info().Int("removed", n).Msg("expired clipboard records removed")
	}
}
