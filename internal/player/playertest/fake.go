// Package playertest provides an in-memory player.Engine for tests.
package playertest

import (
	"errors"
	"sync"

	"github.com/MrSnakeDoc/cuemark/internal/player"
)

// Call records one mutating engine call.
type Call struct {
	Op  string
	Arg int
}

// Fake is a deterministic engine. Position only changes through
// SetPositionMs, Stop and Advance.
type Fake struct {
	mu sync.Mutex

	Media    string
	Duration int
	Position int
	Playing  bool
	Vol      int

	// LoadErr, when set, is returned by the next Load.
	LoadErr error
	// Durations maps a path to the duration Load reports; default 60s.
	Durations map[string]int

	calls []Call
}

var _ player.Engine = (*Fake)(nil)

// New returns a fake with volume 50 and nothing loaded.
func New() *Fake {
	return &Fake{Vol: 50}
}

func (f *Fake) record(op string, arg int) {
	f.calls = append(f.calls, Call{Op: op, Arg: arg})
}

// Calls returns the recorded calls, optionally filtered by operation.
func (f *Fake) Calls(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// Advance moves the play head forward as if audio had played for ms.
func (f *Fake) Advance(ms int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Media == "" || !f.Playing {
		return
	}
	f.Position += ms
	if f.Position >= f.Duration {
		f.Position = f.Duration
		f.Playing = false
	}
}

func (f *Fake) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("load", 0)
	if f.LoadErr != nil {
		err := f.LoadErr
		f.LoadErr = nil
		return err
	}
	d, ok := f.Durations[path]
	if !ok {
		d = 60_000
	}
	f.Media = path
	f.Duration = d
	f.Position = 0
	f.Playing = false
	return nil
}

func (f *Fake) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unload", 0)
	f.Media = ""
	f.Duration = 0
	f.Position = 0
	f.Playing = false
}

func (f *Fake) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("play", 0)
	if f.Media == "" {
		return errors.New("nothing loaded")
	}
	f.Playing = true
	return nil
}

func (f *Fake) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause", 0)
	f.Playing = false
}

func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop", 0)
	f.Playing = false
	f.Position = 0
}

func (f *Fake) HasMedia() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Media != ""
}

func (f *Fake) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Playing
}

func (f *Fake) PositionMs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Media == "" {
		return -1
	}
	return f.Position
}

func (f *Fake) DurationMs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Duration
}

func (f *Fake) SetPositionMs(ms int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_position", ms)
	if f.Media == "" {
		return errors.New("nothing loaded")
	}
	f.Position = ms
	return nil
}

func (f *Fake) SetVolume(percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := player.ClampVolume(percent)
	f.record("set_volume", v)
	f.Vol = v
}

func (f *Fake) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Vol
}

func (f *Fake) Close() error { return nil }
