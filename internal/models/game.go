package models

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// MaxBetAmount is the global ceiling, 100 whole tokens at 9 decimals.
	MaxBetAmount uint64 = 1_000_000_000 * 100
	// HouseLiquidityDivisor caps a single bet at 1/10th of the vault.
	HouseLiquidityDivisor uint64 = 10
	// FreshnessWindow is how long (seconds) an Awaiting round blocks a new bet.
	FreshnessWindow int64 = 60
	// BetCooldown is the minimum spacing (seconds) between two bet requests.
	BetCooldown int64 = 10
)

// Clock is a slot/timestamp pair captured once per operation.
type Clock struct {
	Slot          uint64 `json:"slot"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

type RoundStatus uint8

const (
	RoundStatusNone RoundStatus = iota
	RoundStatusAwaiting
	RoundStatusSettled
)

func (s RoundStatus) String() string {
	switch s {
	case RoundStatusAwaiting:
		return "awaiting"
	case RoundStatusSettled:
		return "settled"
	default:
		return "none"
	}
}

func (s RoundStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// RoundID is an unsigned 128-bit counter.
type RoundID struct {
	v uint256.Int
}

func NewRoundID(n uint64) RoundID {
	var id RoundID
	id.v.SetUint64(n)
	return id
}

func ParseRoundID(s string) (RoundID, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return RoundID{}, fmt.Errorf("invalid round id %q: %v", s, err)
	}
	if v.BitLen() > 128 {
		return RoundID{}, ErrArithmeticOverflow
	}
	return RoundID{v: *v}, nil
}

// Next returns id+1, failing rather than wrapping past 2^128-1.
func (id RoundID) Next() (RoundID, error) {
	var sum uint256.Int
	if _, overflow := sum.AddOverflow(&id.v, uint256.NewInt(1)); overflow || sum.BitLen() > 128 {
		return RoundID{}, ErrArithmeticOverflow
	}
	return RoundID{v: sum}, nil
}

func (id RoundID) IsZero() bool {
	return id.v.IsZero()
}

func (id RoundID) Equal(other RoundID) bool {
	return id.v.Eq(&other.v)
}

func (id RoundID) String() string {
	return id.v.Dec()
}

// Uint64 truncates; only for metrics labels and tests.
func (id RoundID) Uint64() uint64 {
	return id.v.Uint64()
}

// Bytes16 is the little-endian storage form.
func (id RoundID) Bytes16() [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], id.v[0])
	binary.LittleEndian.PutUint64(out[8:16], id.v[1])
	return out
}

func RoundIDFromBytes16(b [16]byte) RoundID {
	var id RoundID
	id.v[0] = binary.LittleEndian.Uint64(b[0:8])
	id.v[1] = binary.LittleEndian.Uint64(b[8:16])
	return id
}

func (id RoundID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *RoundID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRoundID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Round is one wager from placement to settlement.
type Round struct {
	RoundID          RoundID     `json:"round_id"`
	Status           RoundStatus `json:"status"`
	BetAmount        uint64      `json:"bet_amount"`
	GameType         GameType    `json:"game_type"`
	GameConfig       GameConfig  `json:"game_config"`
	Guess            uint32      `json:"guess"`
	Result           uint32      `json:"result"`
	RequestSlot      uint64      `json:"request_slot"`
	RequestTimestamp int64       `json:"request_timestamp"`
	SettleSlot       uint64      `json:"settle_slot"`
	SettleTimestamp  int64       `json:"settle_timestamp"`
}

func (r Round) IsZero() bool {
	return r == Round{}
}

// IsOpen reports whether the round still blocks a new bet. Awaiting rounds
// older than FreshnessWindow are treated as abandoned.
func (r Round) IsOpen(now Clock) bool {
	return r.Status == RoundStatusAwaiting && r.RequestTimestamp > now.UnixTimestamp-FreshnessWindow
}

// Settle applies the verified random words and reports whether the guess won.
//
// The outcome is words[0] % max + min, which spans [min, max-1+min].
func (r *Round) Settle(words []uint32, now Clock) (bool, error) {
	if r.Status != RoundStatusAwaiting {
		return false, ErrCurrentRoundAlreadyClosed
	}
	need := int(r.GameConfig.NumRandomValues)
	if need < 1 {
		need = 1
	}
	if len(words) < need || r.GameConfig.Max == 0 {
		return false, ErrInvalidRandomnessResult
	}

	r.Result = words[0]%r.GameConfig.Max + r.GameConfig.Min
	r.SettleSlot = now.Slot
	r.SettleTimestamp = now.UnixTimestamp
	r.Status = RoundStatusSettled

	return r.Result == r.Guess, nil
}

func (r Round) Won() bool {
	return r.Status == RoundStatusSettled && r.Result == r.Guess
}

// PayoutAmount is the house-funded winnings on top of the returned stake.
func (r Round) PayoutAmount() (uint64, error) {
	if r.Status != RoundStatusSettled || r.Result == 0 {
		return 0, ErrCurrentRoundStillActive
	}
	if r.Result != r.Guess {
		return 0, nil
	}

	payout := new(uint256.Int).Mul(uint256.NewInt(r.BetAmount), uint256.NewInt(uint64(r.GameConfig.PayoutMultiplier)))
	if !payout.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return payout.Uint64(), nil
}
