// ABOUTME: Remembers text files opened during a TUI session
// ABOUTME: Kept in memory only; the token is the one thing written to disk

package recentfiles

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// MaxEntries is how many paths are kept
const MaxEntries = 8

// List is the recently opened files, newest first
type List struct {
	mu    sync.Mutex
	paths []string
}

// New returns an empty list
func New() *List {
	return &List{}
}

// Paths returns the remembered files that still exist
func (l *List) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var existing []string
	for _, p := range l.paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	return existing
}

// Add moves path to the front, dropping the oldest entry beyond MaxEntries
func (l *List) Add(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	paths := slices.DeleteFunc(slices.Clone(l.paths), func(p string) bool { return p == path })
	paths = append([]string{path}, paths...)
	if len(paths) > MaxEntries {
		paths = paths[:MaxEntries]
	}
	l.paths = paths
}
