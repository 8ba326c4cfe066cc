package oracle

import (
	"context"
	"encoding/json"

	"vrf-flip-backend/internal/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisDispatcher publishes requests for a separate oracle process.
type RedisDispatcher struct {
	client  *redis.Client
	channel string
}

func NewRedisDispatcher(client *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: RequestsChannel}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode oracle request")
	}
	return errors.Wrap(d.client.Publish(ctx, d.channel, data).Err(), "publish oracle request")
}

// Subscribe forwards published requests to next until ctx is done.
// Malformed messages and requests for other functions are dropped.
func Subscribe(ctx context.Context, client *redis.Client, function string, next Dispatcher) error {
	sub := client.Subscribe(ctx, RequestsChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribe oracle requests")
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("oracle request subscription closed")
			}

			var req Request
			if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil {
				logger.Warn(ctx).Err(err).Msg("dropping malformed oracle request")
				continue
			}
			if req.Function != function {
				continue
			}
			if err := next.Dispatch(ctx, req); err != nil {
				logger.Error(ctx).Err(err).Str("request", req.Request).Msg("failed to queue oracle request")
			}
		}
	}
}
