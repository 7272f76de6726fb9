package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StoreFileName is the persisted application state document, kept under the
// application data directory.
const StoreFileName = "sync.store.json"

// storeDocument is the on-disk shape: two top-level keys, both owned by
// this store.
type storeDocument struct {
	SyncSettings SyncSettings `json:"sync_settings"`
	SyncState    SyncState    `json:"sync_state"`
}

// StateStore persists sync settings and sync state as one JSON document.
// Loads return zero values on an absent or unparseable document; every
// mutation rewrites the whole file. A mutex serializes the
// read-modify-write cycles.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store backed by <dataDir>/sync.store.json.
func NewStateStore(dataDir string) *StateStore {
	return &StateStore{path: filepath.Join(dataDir, StoreFileName)}
}

// Path returns the backing file path.
func (s *StateStore) Path() string {
	return s.path
}

// Load reads the document. Absent or malformed files yield defaults.
func (s *StateStore) Load() (SyncSettings, SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()

	return doc.SyncSettings, doc.SyncState
}

// LoadSettings reads just the settings.
func (s *StateStore) LoadSettings() SyncSettings {
	settings, _ := s.Load()

	return settings
}

// SaveSettings rewrites the document with new settings, preserving state.
func (s *StateStore) SaveSettings(settings SyncSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	doc.SyncSettings = settings

	return s.writeLocked(doc)
}

// SaveState rewrites the document with new state, preserving settings.
func (s *StateStore) SaveState(state SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	doc.SyncState = state

	return s.writeLocked(doc)
}

// SaveLastSyncAt updates only settings.last_sync_at.
func (s *StateStore) SaveLastSyncAt(timestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	doc.SyncSettings.LastSyncAt = &timestamp

	return s.writeLocked(doc)
}

func (s *StateStore) loadLocked() storeDocument {
	var doc storeDocument

	data, err := os.ReadFile(s.path)
	if err != nil {
		return storeDocument{}
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return storeDocument{}
	}

	return doc
}

func (s *StateStore) writeLocked(doc storeDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("syncer: encoding state document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("syncer: creating state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("syncer: writing state document: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("syncer: replacing state document: %w", err)
	}

	return nil
}
