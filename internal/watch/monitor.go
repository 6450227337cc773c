package watch

import (
	"context"
	"fmt"
	"time"

	"golang.design/x/clipboard"

	"github.com/estnia/copyU/internal/logger"
	"github.com/estnia/copyU/internal/store"
	"github.com/estnia/copyU/internal/util"
)

// Monitor polls the OS clipboard and feeds changed snapshots into the
// store's capture queue. The poll callback must stay fast: enqueueing
// never blocks, and persistence happens on the queue's worker.
type Monitor struct {
	queue    *store.CaptureQueue
	interval time.Duration

	initClipboard func() error
	readText      func() []byte
	writeText     func([]byte)

	lastFingerprint string
	isRunning       bool
}

func NewMonitor(queue *store.CaptureQueue, interval time.Duration) *Monitor {
	return &Monitor{
		queue:         queue,
		interval:      interval,
		initClipboard: clipboard.Init,
		readText: func() []byte {
			return clipboard.Read(clipboard.FmtText)
		},
		writeText: func(b []byte) {
			clipboard.Write(clipboard.FmtText, b)
		},
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	if m.isRunning {
		return fmt.Errorf("monitor is already running")
	}

	if err := m.initClipboard(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	m.isRunning = true
	logger.Info().Dur("interval", m.interval).Msg("clipboard monitor started")

	go m.monitorLoop(ctx)

	return nil
}

func (m *Monitor) Stop() {
	if !m.isRunning {
		return
	}
	m.isRunning = false
	logger.Info().Msg("clipboard monitor stopped")
}

func (m *Monitor) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.isRunning {
				m.checkClipboard()
			}
		}
	}
}

func (m *Monitor) checkClipboard() {
	text := m.readText()
	if len(text) == 0 {
		return
	}

	// Cheap in-memory skip for the common no-change poll; the store
	// still dedups against its stored predecessor.
	fp := util.Fingerprint("", string(text))
	if fp == m.lastFingerprint {
		return
	}
	m.lastFingerprint = fp

	if !m.queue.Enqueue(store.CaptureRequest{Plain: string(text)}) {
		logger.Warn().Int("size", len(text)).Msg("capture queue full, clipboard snapshot dropped")
	}
}

// WriteText places text on the system clipboard and marks it as already
// seen, so recalling a record does not immediately re-capture it.
func (m *Monitor) WriteText(text string) {
	m.lastFingerprint = util.Fingerprint("", text)
	m.writeText([]byte(text))
}

// Write places text on the system clipboard from a process without a
// running monitor (the copy command).
func Write(text string) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
