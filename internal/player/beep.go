package player

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/utils"
)

const (
	outputRate      = beep.SampleRate(44100)
	outputBuffer    = 100 * time.Millisecond
	resampleQuality = 4
)

// BeepEngine plays local files through the system speaker.
type BeepEngine struct {
	logger logger.Logger

	initOnce sync.Once
	initErr  error
	opened   bool

	// Everything below is shared with the speaker goroutine and is only
	// touched under speaker.Lock once the speaker runs.
	source beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	volume *effects.Volume
	ended  bool
	queued bool

	percent int
}

// NewBeepEngine returns an engine with the given initial volume. The speaker
// is opened lazily on the first Load.
func NewBeepEngine(initialVolume int, log logger.Logger) *BeepEngine {
	return &BeepEngine{
		logger:  log,
		percent: ClampVolume(initialVolume),
	}
}

func (e *BeepEngine) initSpeaker() error {
	e.initOnce.Do(func() {
		e.initErr = speaker.Init(outputRate, outputRate.N(outputBuffer))
		if e.initErr != nil {
			e.logger.Error("failed to open audio output", logger.Error(e.initErr))
			return
		}
		e.opened = true
		e.logger.Info("audio output opened",
			logger.Int("sample_rate", int(outputRate)),
			logger.Duration("buffer", outputBuffer))
	})
	return e.initErr
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	if ext == ".wav" {
		s, format, err = wav.Decode(f)
	} else {
		s, format, err = mp3.Decode(f)
	}
	if err != nil {
		utils.Close(f)
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return s, format, nil
}

// Load replaces the current media with path. Playback starts paused.
func (e *BeepEngine) Load(path string) error {
	if err := e.initSpeaker(); err != nil {
		return fmt.Errorf("audio output unavailable: %w", err)
	}

	source, format, err := decode(path)
	if err != nil {
		return err
	}

	e.Unload()

	var stream beep.Streamer = source
	if format.SampleRate != outputRate {
		stream = beep.Resample(resampleQuality, format.SampleRate, outputRate, source)
	}

	ctrl := &beep.Ctrl{Streamer: stream, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}

	speaker.Lock()
	e.source = source
	e.format = format
	e.ctrl = ctrl
	e.volume = vol
	e.ended = false
	e.queued = false
	applyVolume(vol, e.percent)
	speaker.Unlock()

	e.logger.Debug("media loaded",
		logger.String("file", path),
		logger.Int("sample_rate", int(format.SampleRate)),
		logger.Int("duration_ms", e.DurationMs()))
	return nil
}

// Unload stops output and releases the decoder.
func (e *BeepEngine) Unload() {
	if e.source == nil {
		return
	}
	speaker.Clear()

	speaker.Lock()
	src := e.source
	e.source = nil
	e.ctrl = nil
	e.volume = nil
	e.ended = false
	e.queued = false
	speaker.Unlock()

	utils.CloseLogged(src, "decoder", e.logger)
}

func (e *BeepEngine) Play() error {
	if e.source == nil {
		return fmt.Errorf("nothing loaded")
	}

	speaker.Lock()
	restart := e.ended
	if restart {
		if err := e.source.Seek(0); err != nil {
			speaker.Unlock()
			return fmt.Errorf("failed to rewind: %w", err)
		}
		e.ended = false
	}
	e.ctrl.Paused = false
	enqueue := !e.queued
	e.queued = true
	vol := e.volume
	speaker.Unlock()

	if enqueue {
		// The callback runs on the speaker goroutine, which already holds the lock.
		speaker.Play(beep.Seq(vol, beep.Callback(func() {
			e.ended = true
			e.queued = false
		})))
	}
	return nil
}

func (e *BeepEngine) Pause() {
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

// Stop pauses and rewinds to the start.
func (e *BeepEngine) Stop() {
	if e.source == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	if err := e.source.Seek(0); err != nil {
		e.logger.Debug("failed to rewind on stop", logger.Error(err))
	}
	speaker.Unlock()
}

func (e *BeepEngine) HasMedia() bool { return e.source != nil }

func (e *BeepEngine) IsPlaying() bool {
	if e.source == nil {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.queued && !e.ctrl.Paused && !e.ended
}

func (e *BeepEngine) PositionMs() int {
	if e.source == nil {
		return -1
	}
	speaker.Lock()
	pos := e.source.Position()
	speaker.Unlock()
	return int(e.format.SampleRate.D(pos).Milliseconds())
}

func (e *BeepEngine) DurationMs() int {
	if e.source == nil {
		return 0
	}
	return int(e.format.SampleRate.D(e.source.Len()).Milliseconds())
}

func (e *BeepEngine) SetPositionMs(ms int) error {
	if e.source == nil {
		return fmt.Errorf("nothing loaded")
	}
	if ms < 0 {
		ms = 0
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := e.format.SampleRate.N(time.Duration(ms) * time.Millisecond)
	if last := e.source.Len() - 1; n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	if err := e.source.Seek(n); err != nil {
		return fmt.Errorf("failed to seek to %dms: %w", ms, err)
	}
	e.ended = false
	return nil
}

func (e *BeepEngine) SetVolume(percent int) {
	e.percent = ClampVolume(percent)
	if e.volume == nil {
		return
	}
	speaker.Lock()
	applyVolume(e.volume, e.percent)
	speaker.Unlock()
}

func (e *BeepEngine) Volume() int { return e.percent }

// applyVolume maps a percentage onto a base-2 gain: 50% halves the amplitude.
func applyVolume(v *effects.Volume, percent int) {
	if percent <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(float64(percent) / 100)
}

func (e *BeepEngine) Close() error {
	e.Unload()
	if e.opened {
		speaker.Close()
		e.opened = false
	}
	return nil
}
