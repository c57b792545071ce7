package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
)

// MemoryIndex holds the last published bookmark view.
// The control loop replaces it after every reload; HTTP readers use it
// without entering the loop.
type MemoryIndex struct {
	mu         sync.RWMutex
	view       domain.View
	byID       map[string]int // StableID -> selection number
	lastReload time.Time
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
	}
}

// Replace publishes a new view
func (idx *MemoryIndex) Replace(view domain.View) {
	byID := make(map[string]int, view.Len())
	for i, b := range view.Entries {
		id := b.StableID()
		if _, dup := byID[id]; !dup {
			byID[id] = i + 1
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.view = view
	idx.byID = byID
	idx.lastReload = time.Now()
}

// View returns the current view. Callers must not modify it.
func (idx *MemoryIndex) View() domain.View {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.view
}

// Bookmark returns the entry with the 1-based selection number n
func (idx *MemoryIndex) Bookmark(n int) (domain.Bookmark, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.view.Entry(n)
}

// Lookup returns the entry with the given stable id and its selection
// number, both read from the same view.
func (idx *MemoryIndex) Lookup(stableID string) (domain.Bookmark, int, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n, ok := idx.byID[stableID]
	if !ok {
		return domain.Bookmark{}, 0, false
	}
	b, ok := idx.view.Entry(n)
	return b, n, ok
}

// Count returns the number of bookmarks in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.view.Len()
}

// LastReload returns when the view was last replaced
func (idx *MemoryIndex) LastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
