package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store mirrors the bookmark list into Redis. The JSON file stays the source
// of truth; the mirror only ever receives full snapshots.
type Store struct {
	client redis.Cmdable
}

// NewStore creates a new Redis store
func NewStore(client redis.Cmdable) *Store {
	return &Store{
		client: client,
	}
}

// ReplaceBookmarks makes the mirror hold exactly bookmarks.
// Entries that are no longer in the list are removed.
func (s *Store) ReplaceBookmarks(ctx context.Context, bookmarks []domain.Bookmark) error {
	existing, err := s.client.SMembers(ctx, AllBookmarksKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list mirrored bookmarks: %w", err)
	}

	keep := make(map[string]struct{}, len(bookmarks))
	pipe := s.client.TxPipeline()

	for _, b := range bookmarks {
		id := b.StableID()
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", id, err)
		}
		keep[id] = struct{}{}
		pipe.Set(ctx, BookmarkKey(id), data, 0)
		pipe.SAdd(ctx, AllBookmarksKey(), id)
	}

	for _, id := range existing {
		if _, ok := keep[id]; ok {
			continue
		}
		pipe.Del(ctx, BookmarkKey(id))
		pipe.SRem(ctx, AllBookmarksKey(), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

// MirroredCount returns how many bookmarks the mirror currently holds.
func (s *Store) MirroredCount(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, AllBookmarksKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count mirrored bookmarks: %w", err)
	}
	return int(n), nil
}

// Ping checks the connection, used by the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
