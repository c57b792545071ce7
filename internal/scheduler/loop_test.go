package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

func newTestLoop(t *testing.T, tick func()) *Loop {
	t.Helper()
	if tick == nil {
		tick = func() {}
	}
	l := NewLoop(5*time.Millisecond, tick, logger.New("error", false, ""))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(l.Stop)
	return l
}

func TestLoopTicks(t *testing.T) {
	var ticks atomic.Int32
	newTestLoop(t, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks after 2s", ticks.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDoRunsOnLoopAndWaits(t *testing.T) {
	var inTick atomic.Bool
	var overlap atomic.Bool
	l := newTestLoop(t, func() {
		inTick.Store(true)
		time.Sleep(time.Millisecond)
		inTick.Store(false)
	})

	ran := 0
	for i := 0; i < 20; i++ {
		err := l.Do(context.Background(), func() {
			if inTick.Load() {
				overlap.Store(true)
			}
			ran++
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	}

	if ran != 20 {
		t.Errorf("ran = %d, want 20", ran)
	}
	if overlap.Load() {
		t.Error("task ran concurrently with the tick")
	}
}

func TestAfterPostsBackToLoop(t *testing.T) {
	l := newTestLoop(t, nil)

	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed action never ran")
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l := newTestLoop(t, nil)

	if err := l.Do(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	called := false
	if err := l.Do(context.Background(), func() { called = true }); err != nil {
		t.Fatalf("Do() after panic error = %v", err)
	}
	if !called {
		t.Error("loop stopped processing after a panic")
	}
}

func TestDoAfterStop(t *testing.T) {
	l := NewLoop(time.Millisecond, func() {}, logger.New("error", false, ""))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	l.Stop()

	err := l.Do(context.Background(), func() {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Do() after Stop error = %v, want ErrStopped", err)
	}
	if l.Post(func() {}) {
		t.Error("Post() after Stop should report false")
	}
}

func TestStartRejectsZeroInterval(t *testing.T) {
	l := NewLoop(0, func() {}, logger.New("error", false, ""))
	if err := l.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}
