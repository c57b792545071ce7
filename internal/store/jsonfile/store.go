package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/utils"
)

// Store keeps the bookmark list in a single pretty-printed JSON array.
// Every mutation reads the whole document and rewrites it.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store backed by path. The file need not exist.
func NewStore(path string, log logger.Logger) *Store {
	return &Store{
		path:   path,
		logger: log,
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// LoadAll returns every persisted bookmark. A missing, unreadable or corrupt
// file yields an empty list; the failure is logged, not returned.
func (s *Store) LoadAll() []domain.Bookmark {
	bookmarks, err := s.read()
	if err != nil {
		s.logger.Warn("failed to load bookmarks, continuing with an empty list",
			logger.String("file", s.path),
			logger.Error(err))
		return []domain.Bookmark{}
	}
	return bookmarks
}

// Append adds b to the end of the list.
func (s *Store) Append(b domain.Bookmark) error {
	bookmarks := s.LoadAll()
	bookmarks = append(bookmarks, b)
	if err := s.write(bookmarks); err != nil {
		return err
	}

	s.logger.Debug("bookmark appended",
		logger.String("name", b.Name),
		logger.Int("time_ms", b.TimeMs),
		logger.Int("count", len(bookmarks)))
	return nil
}

// Update applies changes to the first record matching key and returns the
// updated record. A stale key yields domain.ErrNotFound.
func (s *Store) Update(key domain.Key, changes domain.Changes) (domain.Bookmark, error) {
	bookmarks := s.LoadAll()

	idx := indexOf(bookmarks, key)
	if idx < 0 {
		return domain.Bookmark{}, fmt.Errorf("%w: %q at %s in %s",
			domain.ErrNotFound, key.Name, domain.FormatOffset(key.TimeMs), filepath.Base(key.File))
	}

	bookmarks[idx] = changes.Apply(bookmarks[idx])
	if err := s.write(bookmarks); err != nil {
		return domain.Bookmark{}, err
	}
	return bookmarks[idx], nil
}

// Delete removes the first record matching key. A miss is not an error; the
// list is rewritten either way.
func (s *Store) Delete(key domain.Key) error {
	bookmarks := s.LoadAll()

	if idx := indexOf(bookmarks, key); idx >= 0 {
		bookmarks = append(bookmarks[:idx], bookmarks[idx+1:]...)
	} else {
		s.logger.Debug("delete matched no bookmark",
			logger.String("name", key.Name),
			logger.Int("time_ms", key.TimeMs))
	}

	return s.write(bookmarks)
}

// ClearAll removes the backing file. A file that does not exist is already clear.
func (s *Store) ClearAll() error {
	err := os.Remove(s.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: remove %s: %w", domain.ErrStorage, s.path, err)
}

func (s *Store) read() ([]domain.Bookmark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Bookmark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	var bookmarks []domain.Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks file: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}

	// Files written before types existed have no "type" key.
	for i := range bookmarks {
		if bookmarks[i].Type == "" {
			bookmarks[i].Type = domain.TypeRegular
		}
	}
	return bookmarks, nil
}

// write replaces the file through a temp file and rename, so readers never
// observe a half-written document.
func (s *Store) write(bookmarks []domain.Bookmark) error {
	data, err := json.MarshalIndent(bookmarks, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode bookmarks: %w", domain.ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorage, s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorage, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorage, s.path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		s.logger.Debug("failed to relax bookmark file mode", logger.Error(err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %w", domain.ErrStorage, s.path, err)
	}
	return nil
}

func indexOf(bookmarks []domain.Bookmark, key domain.Key) int {
	for i, b := range bookmarks {
		if key.Matches(b) {
			return i
		}
	}
	return -1
}
