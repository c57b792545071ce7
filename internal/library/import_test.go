package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

func newImporter(t *testing.T) (*Importer, string) {
	t.Helper()
	root := t.TempDir()
	im, err := NewImporter(filepath.Join(root, "audio_files"), logger.New("error", false, ""))
	if err != nil {
		t.Fatalf("NewImporter() error = %v", err)
	}
	return im, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestNewImporterCreatesFolder(t *testing.T) {
	im, _ := newImporter(t)
	info, err := os.Stat(im.Dir())
	if err != nil || !info.IsDir() {
		t.Fatalf("managed folder not created: %v", err)
	}
}

func TestImportCopiesPreservingMetadata(t *testing.T) {
	im, root := newImporter(t)
	src := filepath.Join(root, "song.wav")
	writeFile(t, src, "RIFF")
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	res, err := im.Import(src, Ask)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := filepath.Join(im.Dir(), "song.wav")
	if res.Path != want || !res.Copied || res.CopyErr != nil {
		t.Fatalf("Import() = %+v, want copied to %s", res, want)
	}
	if got := readFile(t, want); got != "RIFF" {
		t.Errorf("copied content = %q", got)
	}
	info, err := os.Stat(want)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestImportInsideFolderIsNotCopied(t *testing.T) {
	im, _ := newImporter(t)
	inside := filepath.Join(im.Dir(), "already.mp3")
	writeFile(t, inside, "ID3")

	res, err := im.Import(inside, Ask)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Path != inside || res.Copied {
		t.Errorf("Import() = %+v, want in-place use of %s", res, inside)
	}
}

func TestImportMissingSource(t *testing.T) {
	im, root := newImporter(t)
	_, err := im.Import(filepath.Join(root, "nope.wav"), UseExisting)
	if !errors.Is(err, domain.ErrFileNotFound) {
		t.Errorf("Import() error = %v, want ErrFileNotFound", err)
	}
}

func TestImportConflictPolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      ConflictPolicy
		wantErr     error
		wantContent string
		wantCopied  bool
	}{
		{name: "ask", policy: Ask, wantErr: ErrConflict, wantContent: "old"},
		{name: "use existing", policy: UseExisting, wantContent: "old"},
		{name: "overwrite", policy: Overwrite, wantContent: "new", wantCopied: true},
		{name: "cancel", policy: Cancel, wantErr: domain.ErrCanceled, wantContent: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, root := newImporter(t)
			src := filepath.Join(root, "take.wav")
			dest := filepath.Join(im.Dir(), "take.wav")
			writeFile(t, src, "new")
			writeFile(t, dest, "old")

			res, err := im.Import(src, tt.policy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Import() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Import() error = %v", err)
				}
				if res.Path != dest || res.Copied != tt.wantCopied {
					t.Errorf("Import() = %+v", res)
				}
			}
			if got := readFile(t, dest); got != tt.wantContent {
				t.Errorf("destination content = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

func TestImportConflictErrorCarriesDestination(t *testing.T) {
	im, root := newImporter(t)
	src := filepath.Join(root, "a.wav")
	writeFile(t, src, "x")
	writeFile(t, filepath.Join(im.Dir(), "a.wav"), "y")

	_, err := im.Import(src, Ask)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("Import() error = %v, want *ConflictError", err)
	}
	if ce.Dest != filepath.Join(im.Dir(), "a.wav") {
		t.Errorf("Dest = %q", ce.Dest)
	}
}

func TestImportCopyFailureFallsBack(t *testing.T) {
	im, root := newImporter(t)
	src := filepath.Join(root, "clip.wav")
	writeFile(t, src, "data")
	// A non-empty directory in the way makes the final rename fail.
	blocker := filepath.Join(im.Dir(), "clip.wav")
	if err := os.MkdirAll(filepath.Join(blocker, "inner"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := im.Import(src, Overwrite)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Path != src || res.Copied {
		t.Errorf("Import() = %+v, want fallback to %s", res, src)
	}
	if !errors.Is(res.CopyErr, domain.ErrCopyFailed) {
		t.Errorf("CopyErr = %v, want ErrCopyFailed", res.CopyErr)
	}
}
