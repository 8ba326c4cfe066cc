package services

import (
	"sync"
	"time"

	"vrf-flip-backend/internal/models"
)

// SlotDuration is the nominal length of one slot.
const SlotDuration = 400 * time.Millisecond

type ClockSource interface {
	Now() models.Clock
}

// SystemClock derives slots from wall time since genesis.
type SystemClock struct {
	genesis time.Time
}

func NewSystemClock(genesis time.Time) *SystemClock {
	return &SystemClock{genesis: genesis}
}

func (c *SystemClock) Now() models.Clock {
	now := time.Now()
	return models.Clock{
		Slot:          uint64(now.Sub(c.genesis) / SlotDuration),
		UnixTimestamp: now.Unix(),
	}
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now models.Clock
}

func NewManualClock(slot uint64, unix int64) *ManualClock {
	return &ManualClock{now: models.Clock{Slot: slot, UnixTimestamp: unix}}
}

func (c *ManualClock) Now() models.Clock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by seconds, one slot per call.
func (c *ManualClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now.Slot++
	c.now.UnixTimestamp += seconds
}
