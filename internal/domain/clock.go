package domain

import "fmt"

// FormatClock renders a position as mm:ss. Minutes are not wrapped at an hour.
func FormatClock(ms int) string {
	if ms < 0 {
		ms = 0
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// FormatOffset renders a bookmark offset as sec:mmm.
func FormatOffset(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d:%03d", ms/1000, ms%1000)
}
