// Package tokenstore persists sync tokens, one plain-text file per server,
// under the application data directory. It is a leaf package with no
// internal dependencies; the CLI layer is its only importer.
package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrTokenMissing is returned when no token is stored for a server (or the
// stored file is empty).
var ErrTokenMissing = errors.New("tokenstore: no sync token for server")

// Token files hold credentials: owner-only read/write.
const (
	filePerms = 0o600
	dirPerms  = 0o700
)

// Store keeps token files under <dataDir>/tokens/.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at the given application data directory.
func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "tokens")}
}

// fileFor maps a server URL to its token filename: the URL with "://", "/",
// ":" and "." all replaced by "_", plus ".token". The mapping is shared
// with the desktop app, so existing token files keep working.
func (s *Store) fileFor(serverURL string) string {
	name := strings.NewReplacer("://", "_", "/", "_", ":", "_", ".", "_").Replace(serverURL)

	return filepath.Join(s.dir, name+".token")
}

// Save writes the token for serverURL, creating the tokens directory if
// needed.
func (s *Store) Save(serverURL, token string) error {
	if err := os.MkdirAll(s.dir, dirPerms); err != nil {
		return fmt.Errorf("tokenstore: creating %s: %w", s.dir, err)
	}

	path := s.fileFor(serverURL)
	if err := os.WriteFile(path, []byte(token), filePerms); err != nil {
		return fmt.Errorf("tokenstore: writing %s: %w", path, err)
	}

	return nil
}

// Load returns the trimmed token for serverURL. A missing file or an empty
// token yields ErrTokenMissing.
func (s *Store) Load(serverURL string) (string, error) {
	data, err := os.ReadFile(s.fileFor(serverURL))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrTokenMissing
	}

	if err != nil {
		return "", fmt.Errorf("tokenstore: reading token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrTokenMissing
	}

	return token, nil
}

// Delete removes the token for serverURL. Missing files are fine.
func (s *Store) Delete(serverURL string) error {
	err := os.Remove(s.fileFor(serverURL))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore: deleting token: %w", err)
	}

	return nil
}
