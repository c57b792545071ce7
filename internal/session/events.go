package session

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/library"
)

// Event is a user action or timer dispatched to the session.
type Event interface {
	event()
}

type (
	// OpenFile imports Path into the managed folder and loads it.
	OpenFile struct {
		Path   string
		Policy library.ConflictPolicy
	}

	TogglePlay struct{}
	Stop       struct{}

	// SeekTo is a slider position in [0, 1000].
	SeekTo struct {
		Position int
	}

	SeekRelative struct {
		OffsetMs int
	}

	SetVolume struct {
		Percent int
	}

	// AddBookmark marks the current play head. Empty Name uses the default label.
	AddBookmark struct {
		Name string
		Type domain.BookmarkType
	}

	// EditBookmark renames, retypes and optionally shifts a bookmark.
	// AdjustSeconds is ignored when UseCurrentTime is set.
	EditBookmark struct {
		Key            domain.Key
		Name           string
		Type           domain.BookmarkType
		AdjustSeconds  int
		UseCurrentTime bool
	}

	DeleteBookmark struct {
		Key domain.Key
	}

	ClearBookmarks struct{}

	// PlayBookmark starts playback at a bookmark. A bookmark of another file
	// is only played when LoadFile is set.
	PlayBookmark struct {
		Key      domain.Key
		LoadFile bool
	}

	// Tick is the periodic control-loop event.
	Tick struct{}
)

func (OpenFile) event()       {}
func (TogglePlay) event()     {}
func (Stop) event()           {}
func (SeekTo) event()         {}
func (SeekRelative) event()   {}
func (SetVolume) event()      {}
func (AddBookmark) event()    {}
func (EditBookmark) event()   {}
func (DeleteBookmark) event() {}
func (ClearBookmarks) event() {}
func (PlayBookmark) event()   {}
func (Tick) event()           {}

// Effect is the user-visible outcome of an event.
type Effect struct {
	Message string
	// Err is set when the event failed; state was left unchanged.
	Err error
	// Warning is a recoverable problem reported alongside a success.
	Warning error
	// ViewChanged is true when the bookmark list was reloaded.
	ViewChanged bool
}

func failed(err error) Effect { return Effect{Err: err} }

// ErrOtherFile reports that a bookmark belongs to a file other than the
// loaded one and loading it was not confirmed.
var ErrOtherFile = errors.New("bookmark belongs to another file")

// OtherFileError names the file a PlayBookmark would need to load.
type OtherFileError struct {
	Filename string
}

func (e *OtherFileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOtherFile, e.Filename)
}

func (e *OtherFileError) Unwrap() error { return ErrOtherFile }
