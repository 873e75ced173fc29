package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
)

// Limiter bounds how often one subject may submit a scheduling request.
// Checking and consuming are the same call.
type Limiter interface {
	Allow(ctx context.Context, subjectID string) (bool, error)
}

type slidingWindowLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewSlidingWindow returns a limiter allowing limit requests per
// trailing window, shared across server instances through Redis.
func NewSlidingWindow(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return &slidingWindowLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

func (l *slidingWindowLimiter) Allow(ctx context.Context, subjectID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:schedule:%s", subjectID)
	now := time.Now()

	member, err := gonanoid.New()
	if err != nil {
		return false, err
	}

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now.Add(-l.window).UnixMilli()))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: member,
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.window)

	// Fail closed: a limiter we cannot reach never grants requests.
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return card.Val() <= int64(l.limit), nil
}
