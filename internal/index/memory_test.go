package index

import (
	"sync"
	"testing"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
)

func sampleView() domain.View {
	return domain.BuildView([]domain.Bookmark{
		{ID: "b", File: "/a/z.mp3", Filename: "z.mp3", TimeMs: 1000, Name: "late", Type: domain.TypeRegular},
		{ID: "a", File: "/a/a.mp3", Filename: "a.mp3", TimeMs: 5000, Name: "second", Type: domain.TypeEnd},
		{File: "/a/a.mp3", Filename: "a.mp3", TimeMs: 2000, Name: "first", Type: domain.TypeStart},
	})
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if index.Count() != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %d", index.Count())
	}
	if !index.LastReload().IsZero() {
		t.Error("LastReload() should be zero before the first Replace")
	}
}

func TestReplace(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleView())

	if index.Count() != 3 {
		t.Errorf("Count() = %d, want 3", index.Count())
	}
	if index.LastReload().IsZero() {
		t.Error("Replace() should set LastReload")
	}
	if got := len(index.View().Lines); got != 5 {
		t.Errorf("View() has %d lines, want 5 (2 headers + 3 entries)", got)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleView())
	index.Replace(domain.BuildView(nil))

	if index.Count() != 0 {
		t.Errorf("Replace() should overwrite, got %d entries", index.Count())
	}
	if _, _, ok := index.Lookup("a"); ok {
		t.Error("Lookup() found an entry from the previous view")
	}
}

func TestBookmark(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace(sampleView())

	tests := []struct {
		n        int
		wantName string
		wantOK   bool
	}{
		{1, "first", true},
		{2, "second", true},
		{3, "late", true},
		{0, "", false},
		{4, "", false},
	}
	for _, tt := range tests {
		b, ok := index.Bookmark(tt.n)
		if ok != tt.wantOK || b.Name != tt.wantName {
			t.Errorf("Bookmark(%d) = (%q, %v), want (%q, %v)", tt.n, b.Name, ok, tt.wantName, tt.wantOK)
		}
	}
}

func TestLookup(t *testing.T) {
	index := NewMemoryIndex()
	view := sampleView()
	index.Replace(view)

	if b, n, ok := index.Lookup("a"); !ok || n != 2 || b.ID != "a" {
		t.Errorf("Lookup(a) = (%q, %d, %v), want (a, 2, true)", b.ID, n, ok)
	}
	legacy := view.Entries[0]
	if b, n, ok := index.Lookup(legacy.StableID()); !ok || n != 1 || b.Name != legacy.Name {
		t.Errorf("Lookup(derived id) = (%q, %d, %v), want (%q, 1, true)", b.Name, n, ok, legacy.Name)
	}
	if _, _, ok := index.Lookup("missing"); ok {
		t.Error("Lookup(missing) found an entry")
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			index.Replace(sampleView())
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = index.Count()
			_, _ = index.Bookmark(1)
			_ = index.View()
		}()
	}
	wg.Wait()

	if index.Count() != 3 {
		t.Errorf("Count() = %d after concurrent replaces, want 3", index.Count())
	}
}
