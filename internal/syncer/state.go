// Package syncer implements the incremental synchronization engine: the
// dirty-set computation, the per-category pipeline, the orchestrator that
// drives one pass over all categories, the background scheduler, and the
// persisted sync state.
package syncer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// maxLogLines bounds the sync-state log ring.
const maxLogLines = 200

// SyncSettings is the persisted sync configuration. The snake_case JSON
// keys are shared with the desktop UI.
type SyncSettings struct {
	ServerURL           string  `json:"server_url"`
	ExportFolder        string  `json:"export_folder"`
	SyncEnabled         bool    `json:"sync_enabled"`
	SyncIntervalSeconds int64   `json:"sync_interval_seconds"`
	LastSyncAt          *string `json:"last_sync_at"`
	RemoteServerURL     *string `json:"remote_server_url,omitempty"`
}

// SyncState is the snapshot of the most recent sync outcome, for UI
// consumption.
type SyncState struct {
	IsSyncing      bool     `json:"is_syncing"`
	LastSyncStatus *string  `json:"last_sync_status"`
	LastSyncError  *string  `json:"last_sync_error"`
	SyncedCount    int      `json:"synced_count"`
	Logs           []string `json:"logs"`
}

// SyncResult aggregates one pass over all categories.
type SyncResult struct {
	SyncedCount   int      `json:"synced_count"`
	SkippedCount  int      `json:"skipped_count"`
	Errors        []string `json:"errors"`
	IsIncremental bool     `json:"is_incremental"`
}

// StatusMessage renders the human-readable pass summary.
func (r *SyncResult) StatusMessage() string {
	if r.IsIncremental {
		return fmt.Sprintf("Incremental: %d updated, %d skipped", r.SyncedCount, r.SkippedCount)
	}

	return fmt.Sprintf("Full sync: %d pages", r.SyncedCount)
}

// Tracker owns the in-memory sync state. Every mutation takes the single
// mutex, mutates, clones the state, releases the mutex, and only then
// persists the clone — the mutex is never held across I/O.
type Tracker struct {
	mu    sync.Mutex
	state SyncState

	store   *StateStore
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewTracker creates a Tracker persisting through store. The initial state
// is loaded from the store so log history survives restarts.
func NewTracker(store *StateStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		store:   store,
		logger:  logger,
		nowFunc: time.Now,
	}

	if store != nil {
		_, t.state = store.Load()
	}

	return t
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() SyncState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return cloneState(t.state)
}

// BeginTick marks a sync pass as started: syncing flag on, last error
// cleared, a tick line appended.
func (t *Tracker) BeginTick() {
	t.mu.Lock()
	t.state.IsSyncing = true
	t.state.LastSyncError = nil
	t.pushLogLocked("Background sync tick")
	snapshot := cloneState(t.state)
	t.mu.Unlock()

	t.persist(snapshot)
}

// CompleteTick records the outcome of a pass: either the success summary or
// the error message, plus a matching log line.
func (t *Tracker) CompleteTick(result *SyncResult, err error) {
	t.mu.Lock()
	t.state.IsSyncing = false

	if err != nil {
		msg := err.Error()
		t.state.LastSyncError = &msg
		t.pushLogLocked("Background ERROR: " + msg)
	} else {
		status := result.StatusMessage()
		t.state.LastSyncStatus = &status
		t.state.SyncedCount = result.SyncedCount
		t.state.LastSyncError = nil
		t.pushLogLocked(fmt.Sprintf("Background OK: %d updated, %d skipped",
			result.SyncedCount, result.SkippedCount))
	}

	snapshot := cloneState(t.state)
	t.mu.Unlock()

	t.persist(snapshot)
}

// PushLog appends a timestamped line to the log ring and persists.
func (t *Tracker) PushLog(message string) {
	t.mu.Lock()
	t.pushLogLocked(message)
	snapshot := cloneState(t.state)
	t.mu.Unlock()

	t.persist(snapshot)
}

// pushLogLocked appends a timestamped line and trims the ring.
// Caller holds the mutex.
func (t *Tracker) pushLogLocked(message string) {
	line := t.nowFunc().UTC().Format(time.RFC3339) + " " + message
	t.state.Logs = append(t.state.Logs, line)

	if overflow := len(t.state.Logs) - maxLogLines; overflow > 0 {
		t.state.Logs = t.state.Logs[overflow:]
	}
}

// persist writes a state snapshot to the store. Best-effort: persistence
// failures are logged, never surfaced to the sync pass.
func (t *Tracker) persist(snapshot SyncState) {
	if t.store == nil {
		return
	}

	if err := t.store.SaveState(snapshot); err != nil {
		t.logger.Warn("failed to persist sync state", slog.String("error", err.Error()))
	}
}

func cloneState(s SyncState) SyncState {
	out := s
	out.Logs = append([]string(nil), s.Logs...)

	return out
}
