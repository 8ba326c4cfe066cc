package services

import (
	"context"

	"vrf-flip-backend/internal/models"
)

// Broadcaster receives engine notifications after the state they describe
// has been committed.
type Broadcaster interface {
	BroadcastBetPlaced(ctx context.Context, ev models.BetPlaced)
	BroadcastBetSettled(ctx context.Context, ev models.BetSettled)
}

type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) BroadcastBetPlaced(ctx context.Context, ev models.BetPlaced) {
	for _, b := range m {
		b.BroadcastBetPlaced(ctx, ev)
	}
}

func (m MultiBroadcaster) BroadcastBetSettled(ctx context.Context, ev models.BetSettled) {
	for _, b := range m {
		b.BroadcastBetSettled(ctx, ev)
	}
}
