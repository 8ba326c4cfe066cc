package services

import (
	"context"
	"encoding/json"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	eventBetPlaced  = "bet_placed"
	eventBetSettled = "bet_settled"
)

type eventEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// RedisEventBus republishes engine notifications so every API instance can
// reach the sockets it holds, whichever instance committed the change.
type RedisEventBus struct {
	client *redis.Client
}

func NewRedisEventBus(client *redis.Client) *RedisEventBus {
	return &RedisEventBus{client: client}
}

func (b *RedisEventBus) publish(ctx context.Context, kind string, ev interface{}) {
	payload, err := json.Marshal(ev)
	if err == nil {
		var data []byte
		data, err = json.Marshal(eventEnvelope{Kind: kind, Payload: payload})
		if err == nil {
			err = b.client.Publish(ctx, ChannelEvents, data).Err()
		}
	}
	if err != nil {
		logger.Error(ctx).Err(err).Str("kind", kind).Msg("failed to publish engine event")
	}
}

func (b *RedisEventBus) BroadcastBetPlaced(ctx context.Context, ev models.BetPlaced) {
	b.publish(ctx, eventBetPlaced, ev)
}

func (b *RedisEventBus) BroadcastBetSettled(ctx context.Context, ev models.BetSettled) {
	b.publish(ctx, eventBetSettled, ev)
}

// Relay delivers events published by any instance to local until ctx is
// done.
func (b *RedisEventBus) Relay(ctx context.Context, local Broadcaster) error {
	sub := b.client.Subscribe(ctx, ChannelEvents)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribe engine events")
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("engine event subscription closed")
			}

			var env eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn(ctx).Err(err).Msg("dropping malformed engine event")
				continue
			}
			switch env.Kind {
			case eventBetPlaced:
				var ev models.BetPlaced
				if err := json.Unmarshal(env.Payload, &ev); err != nil {
					logger.Warn(ctx).Err(err).Msg("dropping malformed bet placed event")
					continue
				}
				local.BroadcastBetPlaced(ctx, ev)
			case eventBetSettled:
				var ev models.BetSettled
				if err := json.Unmarshal(env.Payload, &ev); err != nil {
					logger.Warn(ctx).Err(err).Msg("dropping malformed bet settled event")
					continue
				}
				local.BroadcastBetSettled(ctx, ev)
			}
		}
	}
}
