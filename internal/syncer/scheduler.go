package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned by Start while a background sync task is
// active. At most one exists per process.
var ErrAlreadyRunning = errors.New("syncer: background sync is already running")

// realtimeInterval is the fixed sleep between background ticks. The
// configured interval is accepted for compatibility but ignored in
// real-time mode — see Start.
const realtimeInterval = 60 * time.Second

// runPassFunc executes one sync pass. The production implementation wraps
// Orchestrator.DoSync; tests inject stubs.
type runPassFunc func(ctx context.Context, lastSyncAt *string) (*SyncResult, error)

// Scheduler owns the single background sync task of the process: a loop of
// pass + fixed sleep, gated by a lock-free running flag.
type Scheduler struct {
	running atomic.Bool

	tracker *Tracker
	store   *StateStore
	logger  *slog.Logger

	runPass   runPassFunc
	sleepFunc func(ctx context.Context, d time.Duration) error
	nowFunc   func() time.Time

	done chan struct{}
}

// NewScheduler creates a Scheduler that executes passes through runPass and
// records outcomes through tracker and store.
func NewScheduler(tracker *Tracker, store *StateStore, runPass runPassFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		tracker:   tracker,
		store:     store,
		logger:    logger,
		runPass:   runPass,
		sleepFunc: sleepCtx,
		nowFunc:   time.Now,
	}
}

// Running reports whether the background task is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start spawns the background task. Fails fast with ErrAlreadyRunning if a
// task is already active. intervalSeconds is accepted from the caller but
// ignored: real-time mode always sleeps the fixed 60 s interval.
// initialLastSyncAt seeds the incremental marker for the first tick.
func (s *Scheduler) Start(ctx context.Context, intervalSeconds int64, initialLastSyncAt *string) error {
	_ = intervalSeconds

	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	done := make(chan struct{})
	s.done = done
	s.tracker.PushLog("Real-time sync enabled")

	go s.loop(ctx, initialLastSyncAt, done)

	return nil
}

// Stop clears the running flag. A task in the middle of a pass exits when
// the pass ends, without sleeping; a sleeping task exits when the sleep
// ends. In-flight HTTP and file writes complete normally.
func (s *Scheduler) Stop() {
	s.running.Store(false)
}

// Wait blocks until the background task has exited. Only valid after a
// successful Start.
func (s *Scheduler) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// loop is the background task body.
func (s *Scheduler) loop(ctx context.Context, lastSyncAt *string, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	for s.running.Load() && ctx.Err() == nil {
		syncStart := s.nowFunc().UTC().Format(time.RFC3339)

		s.tracker.BeginTick()

		result, err := s.runPass(ctx, lastSyncAt)

		s.tracker.CompleteTick(result, err)

		// lastSyncAt advances only when the whole pass finished with zero
		// export errors; otherwise it stays frozen so the next pass covers
		// the same window again.
		if err == nil {
			if len(result.Errors) == 0 {
				lastSyncAt = &syncStart

				if saveErr := s.store.SaveLastSyncAt(syncStart); saveErr != nil {
					s.logger.Warn("failed to persist last_sync_at",
						slog.String("error", saveErr.Error()))
				}
			} else {
				s.tracker.PushLog("Background sync completed with errors; last_sync_at not updated")
			}
		}

		if !s.running.Load() {
			return
		}

		if err := s.sleepFunc(ctx, realtimeInterval); err != nil {
			return
		}
	}
}

// sleepCtx waits for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
