// Package seek rate-limits slider-driven repositioning of the playback engine.
package seek

import (
	"math"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

// MaxPosition is the upper bound of the normalized slider range.
const MaxPosition = 1000

// Engine is the part of the playback engine the coordinator drives.
type Engine interface {
	HasMedia() bool
	IsPlaying() bool
	Play() error
	Pause()
	PositionMs() int
	DurationMs() int
	SetPositionMs(ms int) error
	SetVolume(percent int)
	Volume() int
}

// Clock supplies monotonic time readings.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn once after d on the control thread.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Options tunes the coordinator. Zero values fall back to the defaults.
type Options struct {
	Throttle     time.Duration // minimum spacing between issued seeks (100ms)
	ResumeDelay  time.Duration // pause before resuming after a seek (10ms)
	ResyncDelay  time.Duration // delay before the volume resync (500ms)
	RestoreDelay time.Duration // how long the resync keeps the volume at 0 (50ms)
}

func (o Options) withDefaults() Options {
	if o.Throttle <= 0 {
		o.Throttle = 100 * time.Millisecond
	}
	if o.ResumeDelay <= 0 {
		o.ResumeDelay = 10 * time.Millisecond
	}
	if o.ResyncDelay <= 0 {
		o.ResyncDelay = 500 * time.Millisecond
	}
	if o.RestoreDelay <= 0 {
		o.RestoreDelay = 50 * time.Millisecond
	}
	return o
}

// Coordinator turns normalized seek requests into engine seeks, issuing at
// most one per throttle interval. Requests inside the interval overwrite a
// single pending slot that Tick drains.
//
// All methods must be called from the control thread.
type Coordinator struct {
	engine Engine
	clock  Clock
	sched  Scheduler
	opts   Options
	logger logger.Logger

	lastSeek   time.Time
	hasSeeked  bool
	pending    int
	hasPending bool

	// epoch invalidates delayed resumes scheduled before the last Reset.
	epoch uint64

	// While a resync holds the output at 0, restoreVolume is the level to
	// come back to and muteSeq names the only restore allowed to apply it.
	muted         bool
	restoreVolume int
	muteSeq       uint64
}

// NewCoordinator wires a coordinator to its collaborators.
func NewCoordinator(engine Engine, clock Clock, sched Scheduler, opts Options, log logger.Logger) *Coordinator {
	return &Coordinator{
		engine: engine,
		clock:  clock,
		sched:  sched,
		opts:   opts.withDefaults(),
		logger: log,
	}
}

// Pending reports the queued position, if any.
func (c *Coordinator) Pending() (int, bool) { return c.pending, c.hasPending }

// RequestSeek handles a slider position in [0, MaxPosition].
func (c *Coordinator) RequestSeek(position int) {
	if !c.engine.HasMedia() {
		return
	}
	position = clampPosition(position)

	now := c.clock.Now()
	if c.throttled(now) {
		c.pending = position
		c.hasPending = true
		return
	}

	c.issue(position, now)
	c.sched.After(c.opts.ResyncDelay, c.resync)
}

// Tick drains the pending slot once the throttle interval has elapsed.
func (c *Coordinator) Tick() {
	if !c.hasPending || !c.engine.HasMedia() {
		return
	}
	now := c.clock.Now()
	if c.throttled(now) {
		return
	}
	c.issue(c.pending, now)
}

// SeekRelative moves by offsetMs from the current position, unthrottled.
func (c *Coordinator) SeekRelative(offsetMs int) {
	if !c.engine.HasMedia() {
		return
	}
	target := c.engine.PositionMs() + offsetMs
	if target < 0 {
		target = 0
	}
	if err := c.engine.SetPositionMs(target); err != nil {
		c.logger.Warn("relative seek failed",
			logger.Int("target_ms", target),
			logger.Error(err))
	}
}

// Reset drops the pending request and orphans delayed resumes. Call it when
// media is loaded, stopped or unloaded.
func (c *Coordinator) Reset() {
	c.hasPending = false
	c.pending = 0
	c.epoch++
}

func (c *Coordinator) throttled(now time.Time) bool {
	return c.hasSeeked && now.Sub(c.lastSeek) < c.opts.Throttle
}

// issue performs the seek and records it, whether or not the engine could be
// repositioned.
func (c *Coordinator) issue(position int, now time.Time) {
	c.lastSeek = now
	c.hasSeeked = true
	c.hasPending = false
	c.pending = 0

	duration := c.engine.DurationMs()
	if duration <= 0 {
		c.logger.Debug("seek ignored, duration unknown", logger.Int("position", position))
		return
	}
	target := ToMillis(position, duration)

	wasPlaying := c.engine.IsPlaying()
	if wasPlaying {
		c.engine.Pause()
	}
	if err := c.engine.SetPositionMs(target); err != nil {
		c.logger.Warn("seek failed",
			logger.Int("target_ms", target),
			logger.Error(err))
	}
	if wasPlaying {
		epoch := c.epoch
		c.sched.After(c.opts.ResumeDelay, func() {
			c.resume(epoch)
		})
	}
}

func (c *Coordinator) resume(epoch uint64) {
	if epoch != c.epoch || !c.engine.HasMedia() || c.engine.IsPlaying() {
		return
	}
	if err := c.engine.Play(); err != nil {
		c.logger.Warn("failed to resume after seek", logger.Error(err))
	}
}

// resync briefly mutes the output to clear decoder artefacts after a seek.
// Playback state is read at fire time; nothing from the seek is captured.
// Overlapping resyncs share one saved level and only the last restore runs.
func (c *Coordinator) resync() {
	if !c.engine.IsPlaying() {
		return
	}
	if !c.muted {
		c.restoreVolume = c.engine.Volume()
		c.muted = true
	}
	c.engine.SetVolume(0)

	c.muteSeq++
	seq := c.muteSeq
	c.sched.After(c.opts.RestoreDelay, func() {
		c.restore(seq)
	})
}

func (c *Coordinator) restore(seq uint64) {
	if !c.muted || seq != c.muteSeq {
		return
	}
	c.engine.SetVolume(c.restoreVolume)
	c.muted = false
}

// ToMillis maps a slider position onto an absolute offset.
func ToMillis(position, durationMs int) int {
	return int(math.Round(float64(clampPosition(position)) * float64(durationMs) / MaxPosition))
}

// ToPosition maps an offset onto the slider range, truncating.
func ToPosition(ms, durationMs int) int {
	if durationMs <= 0 || ms < 0 {
		return 0
	}
	return clampPosition(int(float64(ms) / float64(durationMs) * MaxPosition))
}

func clampPosition(p int) int {
	switch {
	case p < 0:
		return 0
	case p > MaxPosition:
		return MaxPosition
	default:
		return p
	}
}
