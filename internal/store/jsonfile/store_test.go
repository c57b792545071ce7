package jsonfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "bookmarks.json"), logger.New("error", false, ""))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestLoadAllMissingFile(t *testing.T) {
	s := newTestStore(t)

	got := s.LoadAll()
	if got == nil || len(got) != 0 {
		t.Errorf("LoadAll() = %#v, want empty non-nil slice", got)
	}
}

func TestLoadAllCorruptFile(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.Path(), "{not json")

	if got := s.LoadAll(); len(got) != 0 {
		t.Errorf("LoadAll() on corrupt file = %v, want empty", got)
	}
}

func TestLoadAllRoundTrip(t *testing.T) {
	s := newTestStore(t)

	original := `[
  {
    "file": "/music/audio_files/a.mp3",
    "filename": "a.mp3",
    "time_ms": 1500,
    "name": "legacy",
    "timestamp": "2024-01-01 10:00:00"
  },
  {
    "id": "8f1d5c0e-2a3b-4c5d-8e9f-0a1b2c3d4e5f",
    "file": "/music/audio_files/b.mp3",
    "filename": "b.mp3",
    "time_ms": 42,
    "name": "chorus",
    "type": "End",
    "timestamp": "2024-02-02 11:00:00"
  }
]`
	writeFile(t, s.Path(), original)

	loaded := s.LoadAll()
	if len(loaded) != 2 {
		t.Fatalf("LoadAll() returned %d bookmarks, want 2", len(loaded))
	}

	reencoded, err := json.Marshal(loaded)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var want, got []map[string]any
	if err := json.Unmarshal([]byte(original), &want); err != nil {
		t.Fatalf("Unmarshal(original) error = %v", err)
	}
	if err := json.Unmarshal(reencoded, &got); err != nil {
		t.Fatalf("Unmarshal(reencoded) error = %v", err)
	}

	// The only difference allowed is the defaulted type.
	want[0]["type"] = "Regular"
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestAppendWritesPrettyJSON(t *testing.T) {
	s := newTestStore(t)

	b := domain.Bookmark{File: "/a.mp3", Filename: "a.mp3", TimeMs: 10, Name: "x", Type: domain.TypeStart, Timestamp: "t"}
	if err := s.Append(b); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(b); err != nil {
		t.Fatalf("second Append() error = %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if data[0] != '[' || data[1] != '\n' || string(data[2:6]) != "  {\n" {
		t.Errorf("file is not indented with two spaces:\n%s", data)
	}

	if got := s.LoadAll(); len(got) != 2 {
		t.Errorf("LoadAll() after two appends = %d records, want 2", len(got))
	}
}

func TestAppendStorageError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing-dir", "bookmarks.json"), logger.New("error", false, ""))

	err := s.Append(domain.Bookmark{File: "/a.mp3", Name: "x"})
	if !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Append() error = %v, want ErrStorage", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	target := domain.Bookmark{File: "/a.mp3", Filename: "a.mp3", TimeMs: 5000, Name: "verse", Type: domain.TypeRegular}
	other := domain.Bookmark{File: "/a.mp3", Filename: "a.mp3", TimeMs: 7000, Name: "bridge", Type: domain.TypeRegular}
	for _, b := range []domain.Bookmark{other, target} {
		if err := s.Append(b); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	updated, err := s.Update(target.Key(), domain.Changes{
		Name:      "verse 1",
		Type:      domain.TypeStart,
		TimeMs:    domain.AdjustTime(target.TimeMs, -2),
		Timestamp: "2025-01-01 00:00:00",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.TimeMs != 3000 || updated.Name != "verse 1" || updated.Type != domain.TypeStart {
		t.Errorf("Update() returned %+v", updated)
	}

	all := s.LoadAll()
	if all[0].Name != "bridge" {
		t.Errorf("unrelated record changed: %+v", all[0])
	}
	if all[1].Name != "verse 1" || all[1].Timestamp != "2025-01-01 00:00:00" {
		t.Errorf("record not persisted: %+v", all[1])
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append(domain.Bookmark{File: "/a.mp3", TimeMs: 1, Name: "x"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	_, err := s.Update(domain.Key{File: "/a.mp3", TimeMs: 2, Name: "x"}, domain.Changes{Name: "y"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	dup := domain.Bookmark{File: "/a.mp3", TimeMs: 1, Name: "dup"}
	for i := 0; i < 2; i++ {
		if err := s.Append(dup); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if err := s.Delete(dup.Key()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := s.LoadAll(); len(got) != 1 {
		t.Errorf("Delete() should remove only the first match, %d left", len(got))
	}
}

func TestDeleteMissIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append(domain.Bookmark{File: "/a.mp3", TimeMs: 1, Name: "keep"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := s.Delete(domain.Key{File: "/nope.mp3", TimeMs: 9, Name: "gone"}); err != nil {
		t.Errorf("Delete() on miss error = %v, want nil", err)
	}
	if got := s.LoadAll(); len(got) != 1 {
		t.Errorf("Delete() on miss changed the list: %v", got)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)

	if err := s.ClearAll(); err != nil {
		t.Errorf("ClearAll() without file error = %v, want nil", err)
	}

	if err := s.Append(domain.Bookmark{File: "/a.mp3", Name: "x"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("bookmark file still present: %v", err)
	}
}

func TestClearAllStorageError(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory in place of the file cannot be removed with os.Remove.
	path := filepath.Join(dir, "bookmarks.json")
	if err := os.MkdirAll(filepath.Join(path, "child"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	s := NewStore(path, logger.New("error", false, ""))
	if err := s.ClearAll(); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("ClearAll() error = %v, want ErrStorage", err)
	}
}
