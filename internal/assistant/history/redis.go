package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) historyKey(userID string) string {
	return fmt.Sprintf("history:%s:exchanges", userID)
}

func (r *RedisRepository) Append(ctx context.Context, userID string, e *Exchange) error {
	b, err := json.Marshal(e)
	if err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to marshal exchange")
		return fmt.Errorf("marshal exchange: %w", err)
	}
	key := r.historyKey(userID)

	// append exchange
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push exchange to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on history key")
		}
	}
	return nil
}

func (r *RedisRepository) Recent(ctx context.Context, userID string, limit int) ([]*Exchange, error) {
	key := r.historyKey(userID)

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	rows, err := r.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []*Exchange{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load exchange history from redis")
		return nil, errx.WrapRedis(err)
	}

	exchanges := make([]*Exchange, 0, len(rows))
	for i, s := range rows {
		var e Exchange
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("userID", userID).Int("index", i).Msg("failed to unmarshal exchange")
			return nil, fmt.Errorf("unmarshal exchange at index %d: %w", i, err)
		}
		exchanges = append(exchanges, &e)
	}
	return exchanges, nil
}

func (r *RedisRepository) Clear(ctx context.Context, userID string) error {
	key := r.historyKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete exchange history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Repository = (*RedisRepository)(nil)
