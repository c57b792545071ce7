package player

import (
	"errors"
	"testing"

	"github.com/faiface/beep/effects"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

func TestClampVolume(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {50, 50}, {100, 100}, {180, 100},
	}
	for _, tt := range tests {
		if got := ClampVolume(tt.in); got != tt.want {
			t.Errorf("ClampVolume(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestApplyVolume(t *testing.T) {
	v := &effects.Volume{Base: 2}

	applyVolume(v, 0)
	if !v.Silent {
		t.Error("0% should be silent")
	}

	applyVolume(v, 50)
	if v.Silent || v.Volume != -1 {
		t.Errorf("50%% = silent:%v volume:%v, want -1", v.Silent, v.Volume)
	}

	applyVolume(v, 100)
	if v.Volume != 0 {
		t.Errorf("100%% volume = %v, want 0", v.Volume)
	}
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	_, _, err := decode("/tmp/track.wma")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("decode() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestBeepEngineWithoutMedia(t *testing.T) {
	e := NewBeepEngine(140, logger.New("error", false, ""))

	if e.Volume() != 100 {
		t.Errorf("initial volume not clamped: %d", e.Volume())
	}
	if e.HasMedia() || e.IsPlaying() {
		t.Error("fresh engine should be empty")
	}
	if e.PositionMs() != -1 {
		t.Errorf("PositionMs() = %d, want -1", e.PositionMs())
	}
	if err := e.Play(); err == nil {
		t.Error("Play() without media should fail")
	}
	if err := e.SetPositionMs(10); err == nil {
		t.Error("SetPositionMs() without media should fail")
	}

	// Volume changes without media are remembered for the next load.
	e.SetVolume(30)
	if e.Volume() != 30 {
		t.Errorf("Volume() = %d, want 30", e.Volume())
	}
}
