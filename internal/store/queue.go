package store

import (
	"context"
	"errors"

	"github.com/estnia/copyU/internal/logger"
)

// CaptureRequest is one queued clipboard snapshot awaiting persistence.
type CaptureRequest struct {
	HTML      string
	Plain     string
	SourceApp string
}

const captureQueueSize = 100

// CaptureQueue decouples clipboard observation from storage: enqueueing
// is fast and never blocks, and a single worker drains requests in FIFO
// order, preserving capture ordering while serializing writes.
type CaptureQueue struct {
	store *Store
	reqs  chan CaptureRequest
}

func NewCaptureQueue(s *Store) *CaptureQueue {
	return &CaptureQueue{
		store: s,
		reqs:  make(chan CaptureRequest, captureQueueSize),
	}
}

// Enqueue adds a capture request without blocking. It reports false when
// the queue is full; the snapshot is dropped and history stays best-effort.
func (q *CaptureQueue) Enqueue(req CaptureRequest) bool {
	select {
	case q.reqs <- req:
		return true
	default:
		return false
	}
}

// Run drains the queue until ctx is cancelled. Capture failures are
// logged and skipped; the queue keeps listening for the next snapshot.
func (q *CaptureQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-q.reqs:
			q.persist(ctx, req)
		}
	}
}

func (q *CaptureQueue) persist(ctx context.Context, req CaptureRequest) {
	res, err := q.store.Capture(ctx, req.HTML, req.Plain, req.SourceApp)
	switch {
	case errors.Is(err, ErrTooLarge):
		logger.Warn().Int("size", len(req.HTML)+len(req.Plain)).Msg("capture skipped: content too large")
	case errors.Is(err, ErrEmptyContent):
		logger.Debug().Msg("capture skipped: empty content")
	case err != nil:
		logger.Error().Err(err).Msg("failed to save clipboard snapshot")
	case res.Deduplicated:
		logger.Debug().Int64("id", res.ID).Msg("capture deduplicated against predecessor")
	default:
		logger.Debug().Int64("id", res.ID).Int("size", len(req.HTML)+len(req.Plain)).Msg("clipboard snapshot saved")
	}
}
