// Package library manages the folder that opened audio files are copied into.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/utils"
)

// ConflictPolicy decides what happens when the destination already exists.
type ConflictPolicy int

const (
	// Ask makes Import return ErrConflict so the caller can prompt.
	Ask ConflictPolicy = iota
	UseExisting
	Overwrite
	Cancel
)

func (p ConflictPolicy) String() string {
	switch p {
	case UseExisting:
		return "use-existing"
	case Overwrite:
		return "overwrite"
	case Cancel:
		return "cancel"
	default:
		return "ask"
	}
}

// ErrConflict reports that the managed folder already holds a file with the
// same name and no policy was chosen.
var ErrConflict = errors.New("file already exists in the managed folder")

// ConflictError carries the destination that caused an ErrConflict.
type ConflictError struct {
	Dest string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict, e.Dest)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Result is the outcome of an import.
type Result struct {
	// Path is the file the player should load.
	Path string
	// Copied is true when a new copy was written.
	Copied bool
	// CopyErr is set when copying failed and Path fell back to the source.
	CopyErr error
}

type Importer struct {
	dir    string
	logger logger.Logger
}

// NewImporter creates the managed folder if needed.
func NewImporter(dir string, log logger.Logger) (*Importer, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve audio folder %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create audio folder %q: %w", abs, err)
	}
	return &Importer{dir: abs, logger: log}, nil
}

func (im *Importer) Dir() string { return im.dir }

// Import resolves path to a file inside the managed folder, copying it there
// when needed.
func (im *Importer) Import(path string, policy ConflictPolicy) (Result, error) {
	src, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}

	if im.contains(src) {
		return Result{Path: src}, nil
	}

	dest := filepath.Join(im.dir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		switch policy {
		case UseExisting:
			im.logger.Info("using existing copy", logger.String("path", dest))
			return Result{Path: dest}, nil
		case Cancel:
			return Result{}, domain.ErrCanceled
		case Overwrite:
		default:
			return Result{}, &ConflictError{Dest: dest}
		}
	}

	if err := copyFile(src, dest, info); err != nil {
		im.logger.Warn("copy into audio folder failed, using original path",
			logger.String("src", src), logger.Error(err))
		return Result{
			Path:    src,
			CopyErr: fmt.Errorf("%w: %s: %w", domain.ErrCopyFailed, filepath.Base(src), err),
		}, nil
	}

	im.logger.Info("copied into audio folder", logger.String("path", dest))
	return Result{Path: dest, Copied: true}, nil
}

func (im *Importer) contains(path string) bool {
	rel, err := filepath.Rel(im.dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// copyFile writes through a temp file so an interrupted copy never replaces
// an existing destination with a truncated one.
func copyFile(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer utils.Close(in)

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".import-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		utils.Close(tmp)
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}
