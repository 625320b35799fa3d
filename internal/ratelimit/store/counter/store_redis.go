package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grantgate/pkg/requestcontext"
)

// RedisStore keeps fixed-window counters in redis so multiple instances
// share one counting authority. The key expires one window after its first
// increment, which is the window rollover.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := "ratelimit:" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("increment counter: %w", err)
	}

	now := requestcontext.Now(ctx)
	windowStart := now
	if remaining := ttl.Val(); remaining > 0 {
		windowStart = now.Add(remaining - window)
	}
	return int(incr.Val()), windowStart, nil
}
