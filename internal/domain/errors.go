package domain

import "errors"

// Failure classes surfaced to the user. Callers wrap them with context and
// test with errors.Is.
var (
	// ErrFileNotFound: the selected source file vanished before load.
	ErrFileNotFound = errors.New("file not found")
	// ErrCopyFailed: copying into the managed folder failed; the original path is used instead.
	ErrCopyFailed = errors.New("copy failed")
	// ErrStorage: the bookmark file could not be read, written or removed.
	ErrStorage = errors.New("storage error")
	// ErrNotFound: the edit or delete target is no longer in the bookmark file.
	ErrNotFound = errors.New("bookmark not found")
	// ErrValidation: a required field is empty or out of range.
	ErrValidation = errors.New("invalid input")
	// ErrNoMedia: the operation needs a loaded audio file.
	ErrNoMedia = errors.New("no audio file is loaded")
	// ErrCanceled: the user declined a confirmation.
	ErrCanceled = errors.New("canceled")
)
