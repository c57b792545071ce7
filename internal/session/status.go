package session

import (
	"fmt"
	"path/filepath"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/seek"
)

// Status is a snapshot of the transport for display.
type Status struct {
	File       string `json:"file"`
	Filename   string `json:"filename"`
	Loaded     bool   `json:"loaded"`
	Playing    bool   `json:"playing"`
	PositionMs int    `json:"position_ms"`
	DurationMs int    `json:"duration_ms"`
	Volume     int    `json:"volume"`
	// Progress is the slider position in [0, 1000].
	Progress  int `json:"progress"`
	Bookmarks int `json:"bookmarks"`
}

// Status reads the engine and session state.
func (s *Session) Status() Status {
	st := Status{
		File:      s.currentFile,
		Volume:    s.engine.Volume(),
		Bookmarks: s.view.Len(),
	}
	if s.currentFile != "" {
		st.Filename = filepath.Base(s.currentFile)
	}
	if !s.engine.HasMedia() {
		return st
	}

	st.Loaded = true
	st.Playing = s.engine.IsPlaying()
	st.DurationMs = s.engine.DurationMs()
	if pos := s.engine.PositionMs(); pos >= 0 {
		st.PositionMs = pos
		st.Progress = seek.ToPosition(pos, st.DurationMs)
	}
	return st
}

// Line renders the status as one terminal line.
func (st Status) Line() string {
	if !st.Loaded {
		return "No file selected"
	}
	state := "⏸"
	if st.Playing {
		state = "▶"
	}
	return fmt.Sprintf("%s %s  %s / %s  vol %d%%", state, st.Filename,
		domain.FormatClock(st.PositionMs), domain.FormatClock(st.DurationMs), st.Volume)
}
