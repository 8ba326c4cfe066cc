package oracle

import (
	"context"

	"vrf-flip-backend/internal/models"
)

const RequestsChannel = "vrf:oracle:requests"

// Request asks the function for randomness bound to one player's request
// resource and round counter.
type Request struct {
	Request   string         `json:"request"`
	Player    string         `json:"player"`
	Function  string         `json:"function"`
	Counter   models.RoundID `json:"counter"`
	NumWords  uint8          `json:"num_words"`
	Slot      uint64         `json:"slot"`
	Timestamp int64          `json:"timestamp"`
}

type Response struct {
	Request  string         `json:"request"`
	Player   string         `json:"player"`
	Function string         `json:"function"`
	Counter  models.RoundID `json:"counter"`
	Words    []uint32       `json:"words"`
}

// Dispatcher hands a request to the oracle function. It must not block on
// fulfilment; the result arrives later through a Settler.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) error
}

// Settler accepts a signed response token for a request resource.
type Settler interface {
	SubmitResult(ctx context.Context, request, token string) error
}

// SettleCallback is the body posted to the API settle endpoint.
type SettleCallback struct {
	Request  string `json:"request" binding:"required"`
	Response string `json:"response" binding:"required"`
}
