package redis

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
)

// Mirror receives full bookmark snapshots.
type Mirror interface {
	ReplaceBookmarks(ctx context.Context, bookmarks []domain.Bookmark) error
}

// Syncer pushes snapshots to a Mirror off the control loop.
// Only the newest snapshot is kept while a write is in flight.
type Syncer struct {
	mirror  Mirror
	timeout time.Duration
	logger  logger.Logger

	latest chan []domain.Bookmark
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSyncer creates a syncer. timeout bounds each mirror write.
func NewSyncer(mirror Mirror, timeout time.Duration, log logger.Logger) *Syncer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Syncer{
		mirror:  mirror,
		timeout: timeout,
		logger:  log,
		latest:  make(chan []domain.Bookmark, 1),
		stopCh:  make(chan struct{}),
	}
}

// Publish queues a snapshot, replacing any snapshot not yet written.
// It never blocks.
func (s *Syncer) Publish(bookmarks []domain.Bookmark) {
	snapshot := make([]domain.Bookmark, len(bookmarks))
	copy(snapshot, bookmarks)

	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.latest:
	default:
	}
	s.latest <- snapshot
}

// Start begins writing published snapshots in the background.
func (s *Syncer) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case snapshot := <-s.latest:
				s.write(ctx, snapshot)
			case <-s.stopCh:
				s.flush(ctx)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("redis mirror started")
}

// Stop writes any pending snapshot and waits for the worker.
func (s *Syncer) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("redis mirror stopped")
}

func (s *Syncer) flush(ctx context.Context) {
	select {
	case snapshot := <-s.latest:
		s.write(ctx, snapshot)
	default:
	}
}

func (s *Syncer) write(ctx context.Context, snapshot []domain.Bookmark) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.mirror.ReplaceBookmarks(wctx, snapshot); err != nil {
		s.logger.Warn("redis mirror update failed",
			logger.Int("count", len(snapshot)),
			logger.Error(err))
		return
	}
	s.logger.Debug("redis mirror updated", logger.Int("count", len(snapshot)))
}
