package models

// PlayerState is the per-player record. Escrow custody belongs to the house;
// the player only ever asks the engine to act.
type PlayerState struct {
	Address           string  `json:"address"`
	Authority         string  `json:"authority"`
	House             string  `json:"house"`
	Escrow            string  `json:"escrow"`
	RewardAddress     string  `json:"reward_address"`
	FeeWallet         string  `json:"fee_wallet"`
	RandomnessRequest string  `json:"randomness_request"`
	CurrentRound      Round   `json:"current_round"`
	LastAirdropSlot   uint64  `json:"last_airdrop_slot"`
	History           History `json:"history"`
}

// NewPlayerState derives every sub-account address from the house and the
// player authority.
func NewPlayerState(house, authority string) *PlayerState {
	address := PlayerAddress(house, authority)
	return &PlayerState{
		Address:           address,
		Authority:         authority,
		House:             house,
		Escrow:            DeriveAddress(EscrowSeed, address),
		RewardAddress:     DeriveAddress(RewardSeed, address),
		FeeWallet:         DeriveAddress(FeeWalletSeed, address),
		RandomnessRequest: DeriveAddress(RequestSeed, address),
		History:           NewHistory(),
	}
}

// Archive pushes the current round into the history ring unless it is empty
// or already the latest entry.
func (p *PlayerState) Archive() bool {
	if p.CurrentRound.IsZero() || p.History.IsLatest(p.CurrentRound.RoundID) {
		return false
	}
	p.History.Push(p.CurrentRound)
	return true
}

// NewRound archives the previous round and opens an Awaiting round with the
// game config snapshotted.
func (p *PlayerState) NewRound(gameType GameType, cfg GameConfig, guess uint32, betAmount uint64, now Clock) error {
	roundID, err := p.CurrentRound.RoundID.Next()
	if err != nil {
		return err
	}

	p.Archive()

	p.CurrentRound = Round{
		RoundID:          roundID,
		Status:           RoundStatusAwaiting,
		BetAmount:        betAmount,
		GameType:         gameType,
		GameConfig:       cfg,
		Guess:            guess,
		RequestSlot:      now.Slot,
		RequestTimestamp: now.UnixTimestamp,
	}
	return nil
}

type HouseState struct {
	Address          string `json:"address"`
	Authority        string `json:"authority"`
	Mint             string `json:"mint"`
	FeeMint          string `json:"fee_mint"`
	HouseVault       string `json:"house_vault"`
	OracleFunction   string `json:"oracle_function"`
	OracleSigner     string `json:"oracle_signer"`
	OracleFeeVault   string `json:"oracle_fee_vault"`
	RequestFee       uint64 `json:"request_fee"`
	CreatedSlot      uint64 `json:"created_slot"`
	CreatedTimestamp int64  `json:"created_timestamp"`
}

type RequestStatus uint8

const (
	RequestStatusIdle RequestStatus = iota
	RequestStatusPending
	RequestStatusFulfilled
)

func (s RequestStatus) String() string {
	switch s {
	case RequestStatusPending:
		return "pending"
	case RequestStatusFulfilled:
		return "fulfilled"
	default:
		return "idle"
	}
}

// RandomnessRequest is the single request slot bound to one player. Counter
// holds the round id the outstanding request was issued for.
type RandomnessRequest struct {
	Address            string        `json:"address"`
	Authority          string        `json:"authority"`
	Function           string        `json:"function"`
	Escrow             string        `json:"escrow"`
	Counter            RoundID       `json:"counter"`
	Status             RequestStatus `json:"status"`
	RequestSlot        uint64        `json:"request_slot"`
	RequestTimestamp   int64         `json:"request_timestamp"`
	FulfilledSlot      uint64        `json:"fulfilled_slot"`
	FulfilledTimestamp int64         `json:"fulfilled_timestamp"`
}
