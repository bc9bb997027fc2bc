package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sms-marks-api/internal/models"
)

func statsCacheKey(key models.CohortKey) string {
	return fmt.Sprintf("marks:stats:%d:%s:%d", key.ClassID, key.ExamType, key.ExamYear)
}

// invalidateStatsCache drops the cached cohort statistics after any write
// that changes them. Cache errors are logged and ignored; statistics also
// expire on their own TTL.
func invalidateStatsCache(ctx context.Context, cache *redis.Client, key models.CohortKey, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, statsCacheKey(key)).Err(); err != nil {
		logger.Warn().Err(err).Str("cache_key", statsCacheKey(key)).Msg("failed to invalidate stats cache")
	}
}
