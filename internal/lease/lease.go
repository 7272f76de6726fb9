// Package lease models the scoped right to write inside the user-chosen
// export folder for the duration of a sync pass. On platforms without a
// scoped-access concept the lease is a validation-only handle; the acquire
// and release discipline is the same everywhere so the orchestrator never
// special-cases a platform.
package lease

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"
)

// ErrFolderAccess marks a failed lease acquisition. Fatal to the sync pass.
var ErrFolderAccess = errors.New("lease: export folder access denied")

// Lease is a held right to read and write inside one folder. Release is
// idempotent and must be called on every exit path; callers defer it
// immediately after a successful Acquire.
type Lease struct {
	folder string
	logger *slog.Logger

	once sync.Once
}

// Acquire validates the export folder and takes the access lease.
// The folder must be a UTF-8 representable path to an existing, writable
// directory. Any failure wraps ErrFolderAccess.
func Acquire(folder string, logger *slog.Logger) (*Lease, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if folder == "" {
		return nil, fmt.Errorf("%w: folder path is empty", ErrFolderAccess)
	}

	if !utf8.ValidString(folder) {
		return nil, fmt.Errorf("%w: folder path is not valid UTF-8", ErrFolderAccess)
	}

	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFolderAccess, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFolderAccess, folder)
	}

	if err := probeWritable(folder); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFolderAccess, err)
	}

	logger.Debug("folder lease acquired", slog.String("folder", folder))

	return &Lease{folder: folder, logger: logger}, nil
}

// Folder returns the leased folder path.
func (l *Lease) Folder() string {
	return l.folder
}

// Release gives the lease back. Safe to call more than once.
func (l *Lease) Release() {
	if l == nil {
		return
	}

	l.once.Do(func() {
		l.logger.Debug("folder lease released", slog.String("folder", l.folder))
	})
}

// probeFile writes and removes a throwaway file to prove the folder is
// writable. The PID suffix keeps concurrent processes from clobbering each
// other's probes.
func probeFile(folder string) error {
	probe := filepath.Join(folder, fmt.Sprintf(".huntly_sync_test_%d", os.Getpid()))

	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("cannot write to folder %s: %w", folder, err)
	}

	_ = os.Remove(probe)

	return nil
}
