package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// LogCacheError logs a cache failure without interrupting the caller
func LogCacheError(ctx context.Context, operation string, err error) {
	slog.WarnContext(ctx, "Cache operation failed",
		"operation", operation,
		"error", err)
}

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// LeaderboardKey names one cached leaderboard snapshot
func LeaderboardKey(limit int, classID *uint) string {
	if classID == nil {
		return fmt.Sprintf("global:%d", limit)
	}
	return fmt.Sprintf("class:%d:%d", *classID, limit)
}

// InvalidateLevelCache drops the cached level table
func InvalidateLevelCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Level, LevelTableKey)
}

// InvalidateLeaderboardCache drops every leaderboard snapshot
func InvalidateLeaderboardCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Leaderboard, "*")
}

// InvalidateStatsCache drops cached dashboard counts
func InvalidateStatsCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
