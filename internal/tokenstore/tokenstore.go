// ABOUTME: Durable storage for the single bearer token
// ABOUTME: File-backed store in the config directory plus an in-memory variant

package tokenstore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Key is the fixed file name the token is stored under.
const Key = "access_token"

// Store holds at most one token. Implementations never fail loudly: a
// storage error behaves as if no token were present.
type Store interface {
	Get() string
	Set(token string)
	Clear()
	Exists() bool
}

// FileStore keeps the token in <dir>/access_token with owner-only permissions.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Set.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, Key)
}

// Get returns the stored token or "" when there is none.
func (s *FileStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Token read failed", "error", err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Set replaces the token. The write goes to a temp file that is renamed into
// place, so readers see either the old or the new token, never a partial one.
func (s *FileStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		slog.Debug("Token dir create failed", "error", err)
		return
	}

	tmp, err := os.CreateTemp(s.dir, Key+".*.tmp")
	if err != nil {
		slog.Debug("Token temp file create failed", "error", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		slog.Debug("Token write failed", "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		slog.Debug("Token write failed", "error", err)
		return
	}
	if err := os.Rename(tmpName, s.path()); err != nil {
		os.Remove(tmpName)
		slog.Debug("Token rename failed", "error", err)
	}
}

// Clear removes the token.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Token remove failed", "error", err)
	}
}

// Exists reports whether a non-empty token is stored.
func (s *FileStore) Exists() bool {
	return s.Get() != ""
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token ("" for none).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryStore) Clear() {
	s.Set("")
}

func (s *MemoryStore) Exists() bool {
	return s.Get() != ""
}
