package models

type BetPlaced struct {
	RoundID   RoundID  `json:"round_id"`
	Player    string   `json:"player"`
	Authority string   `json:"authority"`
	GameType  GameType `json:"game_type"`
	BetAmount uint64   `json:"bet_amount"`
	Guess     uint32   `json:"guess"`
	Slot      uint64   `json:"slot"`
	Timestamp int64    `json:"timestamp"`
}

type BetSettled struct {
	RoundID      RoundID  `json:"round_id"`
	Player       string   `json:"player"`
	Authority    string   `json:"authority"`
	Won          bool     `json:"won"`
	GameType     GameType `json:"game_type"`
	BetAmount    uint64   `json:"bet_amount"`
	Payout       uint64   `json:"payout"`
	EscrowChange uint64   `json:"escrow_change"`
	Guess        uint32   `json:"guess"`
	Result       uint32   `json:"result"`
	Slot         uint64   `json:"slot"`
	Timestamp    int64    `json:"timestamp"`
}

// RoundAccepted is returned from a successful bet.
type RoundAccepted struct {
	RoundID RoundID `json:"round_id"`
	Request string  `json:"request"`
}

type RoundSettled struct {
	RoundID   RoundID    `json:"round_id"`
	Won       bool       `json:"won"`
	Payout    uint64     `json:"payout"`
	Result    uint32     `json:"result"`
	Transfers []Transfer `json:"transfers"`
}

type BetRequest struct {
	GameType uint32 `json:"game_type"`
	Guess    uint32 `json:"guess"`
	Amount   uint64 `json:"amount" binding:"required,min=1"`
}
