package cache

import (
	"context"
	"log/slog"
	"time"
)

// SafeSet stores a value and logs instead of failing.
func SafeSet(ctx context.Context, helper *CacheHelper, key string, value interface{}, ttl time.Duration) {
	if err := helper.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "Failed to set cache key",
			"error", err,
			"key", helper.GetCacheKey(key))
	}
}

// SafeSetMultiple stores values in one pipeline and logs instead of failing.
func SafeSetMultiple(ctx context.Context, helper *CacheHelper, items map[string]interface{}, ttl time.Duration) {
	if err := helper.SetMultiple(ctx, items, ttl); err != nil {
		slog.WarnContext(ctx, "Failed to set cache keys",
			"error", err,
			"count", len(items))
	}
}
