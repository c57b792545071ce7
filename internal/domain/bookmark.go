package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the wall-clock format stored in the bookmark file.
const TimestampLayout = "2006-01-02 15:04:05"

// BookmarkType is the closed set of bookmark kinds.
type BookmarkType string

const (
	TypeRegular BookmarkType = "Regular"
	TypeStart   BookmarkType = "Start"
	TypeEnd     BookmarkType = "End"
)

// BookmarkTypes lists the valid types in display order.
var BookmarkTypes = []BookmarkType{TypeRegular, TypeStart, TypeEnd}

// ParseBookmarkType accepts a type name case-insensitively.
// An empty string yields TypeRegular.
func ParseBookmarkType(s string) (BookmarkType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRegular, nil
	}
	for _, t := range BookmarkTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown bookmark type %q (want Regular, Start or End)", ErrValidation, s)
}

// Icon returns the list marker for the type.
func (t BookmarkType) Icon() string {
	switch t {
	case TypeStart:
		return "▶️"
	case TypeEnd:
		return "⏹️"
	default:
		return "🔖"
	}
}

// Bookmark is a named, typed timestamp marker within one audio file.
// Field names and JSON keys are the on-disk format.
type Bookmark struct {
	// ID is a random identifier assigned at creation.
	// Records written before IDs existed have none and are matched by
	// (File, TimeMs, Name) instead.
	ID string `json:"id,omitempty"`

	// File is the resolved path of the audio file.
	File string `json:"file"`

	// Filename is the base name of File, used to group and sort.
	Filename string `json:"filename"`

	// TimeMs is the non-negative offset into the file.
	TimeMs int `json:"time_ms"`

	Name string       `json:"name"`
	Type BookmarkType `json:"type"`

	// Timestamp is the creation or last-edit time, formatted with TimestampLayout.
	Timestamp string `json:"timestamp"`
}

// NewBookmark builds a bookmark for file at timeMs. An empty name is replaced
// by DefaultName(timeMs).
func NewBookmark(file string, timeMs int, name string, typ BookmarkType, now time.Time) (Bookmark, error) {
	if file == "" {
		return Bookmark{}, fmt.Errorf("%w: bookmark needs a file", ErrValidation)
	}
	if timeMs < 0 {
		return Bookmark{}, fmt.Errorf("%w: negative bookmark time %d", ErrValidation, timeMs)
	}
	if typ == "" {
		typ = TypeRegular
	}
	if _, err := ParseBookmarkType(string(typ)); err != nil {
		return Bookmark{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(timeMs)
	}

	return Bookmark{
		ID:        uuid.NewString(),
		File:      file,
		Filename:  filepath.Base(file),
		TimeMs:    timeMs,
		Name:      name,
		Type:      typ,
		Timestamp: now.Format(TimestampLayout),
	}, nil
}

// DefaultName is the label used when the user leaves the name empty.
func DefaultName(timeMs int) string {
	return "Bookmark at " + FormatOffset(timeMs)
}

// Key returns the match key addressing this bookmark.
func (b Bookmark) Key() Key {
	return Key{ID: b.ID, File: b.File, TimeMs: b.TimeMs, Name: b.Name}
}

// StableID returns ID when set, otherwise a short digest of the identity
// triple, so legacy records still get a consistent string key.
func (b Bookmark) StableID() string {
	if b.ID != "" {
		return b.ID
	}
	sum := sha256.Sum256([]byte(b.File + "\x00" + strconv.Itoa(b.TimeMs) + "\x00" + b.Name))
	return hex.EncodeToString(sum[:])[:16]
}

// Key identifies a persisted bookmark for edit and delete.
type Key struct {
	ID     string
	File   string
	TimeMs int
	Name   string
}

// Matches reports whether b is the record addressed by k. IDs win when both
// sides carry one; otherwise the (file, time_ms, name) triple is compared.
func (k Key) Matches(b Bookmark) bool {
	if k.ID != "" && b.ID != "" {
		return k.ID == b.ID
	}
	return b.File == k.File && b.TimeMs == k.TimeMs && b.Name == k.Name
}

// Changes are the editable fields of a bookmark.
type Changes struct {
	Name      string
	Type      BookmarkType
	TimeMs    int
	Timestamp string
}

// Apply returns b with the changes applied.
func (c Changes) Apply(b Bookmark) Bookmark {
	b.Name = c.Name
	b.Type = c.Type
	b.TimeMs = c.TimeMs
	b.Timestamp = c.Timestamp
	return b
}

// MaxAdjustSeconds is the furthest an edit may move a bookmark forward.
const MaxAdjustSeconds = 3600

// ClampAdjust bounds an edit offset to [floor(-timeMs/1000), MaxAdjustSeconds].
func ClampAdjust(timeMs, seconds int) int {
	low := -timeMs / 1000
	if timeMs%1000 != 0 {
		low--
	}
	switch {
	case seconds > MaxAdjustSeconds:
		return MaxAdjustSeconds
	case seconds < low:
		return low
	default:
		return seconds
	}
}

// AdjustTime shifts timeMs by whole seconds and clamps at zero.
func AdjustTime(timeMs, seconds int) int {
	t := timeMs + seconds*1000
	if t < 0 {
		return 0
	}
	return t
}
