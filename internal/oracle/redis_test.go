package oracle

import (
	"context"
	"testing"
	"time"

	"vrf-flip-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanDispatcher chan Request

func (c chanDispatcher) Dispatch(_ context.Context, req Request) error {
	select {
	case c <- req:
	default:
	}
	return nil
}

func TestRedisDispatchSubscribe(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chanDispatcher, 1)
	errc := make(chan error, 1)
	go func() { errc <- Subscribe(ctx, client, "fn", got) }()

	d := NewRedisDispatcher(client)
	want := Request{Request: "req", Player: "p", Function: "fn", Counter: models.NewRoundID(9), NumWords: 1}

	// the subscription may not be live yet, so publish until it is
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		require.NoError(t, d.Dispatch(ctx, Request{Request: "other", Function: "someone-else"}))
		require.NoError(t, d.Dispatch(ctx, want))
		select {
		case req := <-got:
			assert.Equal(t, want.Request, req.Request)
			assert.True(t, want.Counter.Equal(req.Counter))
			cancel()
			assert.NoError(t, <-errc)
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("no request received")
		}
	}
}
