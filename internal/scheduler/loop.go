package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

// ErrStopped is returned when work is submitted to a loop that is not running.
var ErrStopped = errors.New("control loop stopped")

// Loop is the single control thread. Every mutation of session state runs on
// its goroutine: the periodic tick, posted UI events and delayed actions.
type Loop struct {
	interval time.Duration
	tick     func()
	logger   logger.Logger

	tasks  chan func()
	stopCh chan struct{}
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

// NewLoop creates a loop that calls tick every interval once started.
func NewLoop(interval time.Duration, tick func(), log logger.Logger) *Loop {
	return &Loop{
		interval: interval,
		tick:     tick,
		logger:   log,
		tasks:    make(chan func(), 64),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop goroutine.
func (l *Loop) Start(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("tick interval must be > 0, got %v", l.interval)
	}

	l.startOnce.Do(func() {
		l.started.Store(true)
		ticker := time.NewTicker(l.interval)
		go func() {
			defer close(l.done)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					l.run(l.tick)
				case fn := <-l.tasks:
					l.run(fn)
				case <-l.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	})
	return nil
}

// Stop ends the loop and waits for the in-flight task to finish. Tasks still
// queued are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if !l.started.Load() {
			close(l.done)
		}
	})
	<-l.done
}

// Post queues fn for the loop. It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// After posts fn to the loop once d has elapsed. Pending timers cannot be
// cancelled; fn must re-check live state when it runs.
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		if !l.Post(fn) {
			l.logger.Debug("delayed action dropped, loop stopped",
				logger.Duration("delay", d))
		}
	})
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have run right before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// run isolates panics so one bad event cannot take the control thread down.
func (l *Loop) run(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("recovered panic in control loop",
				logger.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}
