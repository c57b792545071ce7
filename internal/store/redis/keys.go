package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "cuemark:bookmark:"
	// KeyAllBookmarks is the key for the set of all bookmark IDs
	KeyAllBookmarks = "cuemark:bookmarks:all"
)

// BookmarkKey returns the Redis key for a bookmark by stable ID
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// AllBookmarksKey returns the key for the set of all bookmark IDs
func AllBookmarksKey() string {
	return KeyAllBookmarks
}
