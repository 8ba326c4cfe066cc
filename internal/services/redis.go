package services

import (
	"context"
	"fmt"
	"time"

	"vrf-flip-backend/internal/config"
	"vrf-flip-backend/internal/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisService is the shared-state backend for multi-instance deployments.
// Updates and views use WATCH/MULTI: every key read inside fn is watched,
// and the staged writes (or, for a view, the reads) only stand if none of
// them changed meanwhile.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Client() *redis.Client {
	return s.client
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, false, fn)
}

// View reads a consistent snapshot: the read keys are watched like in
// Update and an empty MULTI/EXEC confirms none changed, otherwise fn runs
// again.
func (s *RedisService) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *RedisService) run(ctx context.Context, readOnly bool, fn func(tx Tx) error) error {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newKVTx(ctx, readOnly, func(ctx context.Context, key string) ([]byte, error) {
				if err := rtx.Watch(ctx, key).Err(); err != nil {
					return nil, err
				}
				return readKey(ctx, rtx, key)
			})
			if err := fn(tx); err != nil {
				return err
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(tx.writes) == 0 {
					pipe.Ping(ctx)
				}
				for k, v := range tx.writes {
					pipe.Set(ctx, k, v, 0)
				}
				return nil
			})
			return err
		})
		if err == redis.TxFailedErr {
			logger.Debug(ctx).Int("attempt", attempt).Bool("read_only", readOnly).Msg("redis transaction conflict, retrying")
			continue
		}
		return err
	}
	return errors.Errorf("redis transaction aborted after %d conflicting attempts", maxTxAttempts)
}

func readKey(ctx context.Context, c redis.Cmdable, key string) ([]byte, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return data, nil
}

// CheckRateLimit is a fixed-window counter per subject and action.
func (s *RedisService) CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, subject, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, subject, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, subject, action)).Err()
}
