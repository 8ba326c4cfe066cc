package models_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"vrf-flip-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGame(t *testing.T) {
	tests := []struct {
		id      uint32
		want    models.GameType
		min     uint32
		max     uint32
		payout  uint32
		wantErr error
	}{
		{id: 1, want: models.GameTypeCoinFlip, min: 1, max: 2, payout: 1},
		{id: 2, want: models.GameTypeSixSidedDiceRoll, min: 1, max: 6, payout: 5},
		{id: 3, want: models.GameTypeTwentySidedDiceRoll, min: 1, max: 20, payout: 19},
		{id: 0, wantErr: models.ErrInvalidGameType},
		{id: 4, wantErr: models.ErrInvalidGameType},
		{id: 1 << 31, wantErr: models.ErrInvalidGameType},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("id=%d", tt.id), func(t *testing.T) {
			gameType, cfg, err := models.ResolveGame(tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, gameType)
			assert.Equal(t, uint8(1), cfg.NumRandomValues)
			assert.Equal(t, tt.min, cfg.Min)
			assert.Equal(t, tt.max, cfg.Max)
			assert.Equal(t, tt.payout, cfg.PayoutMultiplier)
		})
	}
}

func TestCatalogListsEveryGame(t *testing.T) {
	entries := models.Catalog()
	require.Len(t, entries, 3)
	for _, e := range entries {
		_, cfg, err := models.ResolveGame(e.ID)
		require.NoError(t, err)
		assert.Equal(t, cfg, e.Config)
	}
}

func TestRoundIDNextOverflow(t *testing.T) {
	max, err := models.ParseRoundID("340282366920938463463374607431768211455")
	require.NoError(t, err)

	_, err = max.Next()
	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)

	_, err = models.ParseRoundID("340282366920938463463374607431768211456")
	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)

	next, err := models.NewRoundID(41).Next()
	require.NoError(t, err)
	assert.Equal(t, "42", next.String())
}

func TestRoundIDJSON(t *testing.T) {
	id, err := models.ParseRoundID("18446744073709551616")
	require.NoError(t, err)

	data, err := json.Marshal(struct {
		ID models.RoundID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"18446744073709551616"}`, string(data))

	var back struct {
		ID models.RoundID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, id.Equal(back.ID))
}

func awaitingRound(t *testing.T, gameID uint32, guess uint32, bet uint64) models.Round {
	t.Helper()
	gameType, cfg, err := models.ResolveGame(gameID)
	require.NoError(t, err)
	return models.Round{
		RoundID:          models.NewRoundID(1),
		Status:           models.RoundStatusAwaiting,
		BetAmount:        bet,
		GameType:         gameType,
		GameConfig:       cfg,
		Guess:            guess,
		RequestSlot:      10,
		RequestTimestamp: 1000,
	}
}

func TestRoundSettleReduction(t *testing.T) {
	tests := []struct {
		name   string
		gameID uint32
		guess  uint32
		raw    uint32
		result uint32
		won    bool
	}{
		{name: "coinflip even raw", gameID: 1, guess: 1, raw: 8, result: 1, won: true},
		{name: "coinflip odd raw", gameID: 1, guess: 1, raw: 7, result: 2, won: false},
		{name: "six sided", gameID: 2, guess: 3, raw: 14, result: 3, won: true},
		{name: "twenty sided top", gameID: 3, guess: 20, raw: 19, result: 20, won: true},
		{name: "max raw", gameID: 3, guess: 1, raw: ^uint32(0), result: 16, won: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := awaitingRound(t, tt.gameID, tt.guess, 1_000)
			won, err := r.Settle([]uint32{tt.raw}, models.Clock{Slot: 11, UnixTimestamp: 1005})
			require.NoError(t, err)
			assert.Equal(t, tt.won, won)
			assert.Equal(t, tt.result, r.Result)
			assert.Equal(t, models.RoundStatusSettled, r.Status)
			assert.Equal(t, uint64(11), r.SettleSlot)
			assert.Equal(t, int64(1005), r.SettleTimestamp)
			assert.GreaterOrEqual(t, r.Result, r.GameConfig.Min)
			assert.LessOrEqual(t, r.Result, r.GameConfig.Max)
		})
	}
}

func TestRoundSettleRejects(t *testing.T) {
	r := awaitingRound(t, 2, 3, 1_000)
	_, err := r.Settle(nil, models.Clock{})
	assert.ErrorIs(t, err, models.ErrInvalidRandomnessResult)
	assert.Equal(t, models.RoundStatusAwaiting, r.Status)

	_, err = r.Settle([]uint32{2}, models.Clock{})
	require.NoError(t, err)

	_, err = r.Settle([]uint32{2}, models.Clock{})
	assert.ErrorIs(t, err, models.ErrCurrentRoundAlreadyClosed)
}

func TestRoundPayoutAmount(t *testing.T) {
	r := awaitingRound(t, 2, 3, 1_000)
	_, err := r.PayoutAmount()
	assert.ErrorIs(t, err, models.ErrCurrentRoundStillActive)

	_, err = r.Settle([]uint32{2}, models.Clock{})
	require.NoError(t, err)
	payout, err := r.PayoutAmount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), payout)

	loser := awaitingRound(t, 2, 4, 1_000)
	_, err = loser.Settle([]uint32{2}, models.Clock{})
	require.NoError(t, err)
	payout, err = loser.PayoutAmount()
	require.NoError(t, err)
	assert.Zero(t, payout)

	huge := awaitingRound(t, 3, 1, ^uint64(0)/2)
	_, err = huge.Settle([]uint32{0}, models.Clock{})
	require.NoError(t, err)
	_, err = huge.PayoutAmount()
	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)
}

func TestRoundIsOpen(t *testing.T) {
	r := awaitingRound(t, 1, 1, 1)
	assert.True(t, r.IsOpen(models.Clock{UnixTimestamp: 1059}))
	assert.False(t, r.IsOpen(models.Clock{UnixTimestamp: 1060}))

	r.Status = models.RoundStatusSettled
	assert.False(t, r.IsOpen(models.Clock{UnixTimestamp: 1000}))
}

func TestHistoryRingWraps(t *testing.T) {
	h := models.NewHistory()
	for i := uint64(1); i <= 49; i++ {
		h.Push(models.Round{RoundID: models.NewRoundID(i), Status: models.RoundStatusSettled})
	}

	assert.Equal(t, uint32(1), h.Idx)
	assert.Equal(t, uint32(models.MaxHistory), h.Max)
	assert.Equal(t, 48, h.Len())

	ordered := h.Ordered()
	require.Len(t, ordered, 48)
	assert.Equal(t, "2", ordered[0].RoundID.String())
	assert.Equal(t, "49", ordered[47].RoundID.String())
	assert.True(t, h.IsLatest(models.NewRoundID(49)))
	assert.False(t, h.IsLatest(models.NewRoundID(48)))
}

func TestPlayerNewRoundArchivesOnce(t *testing.T) {
	p := models.NewPlayerState(models.HouseAddress(), "alice")
	now := models.Clock{Slot: 1, UnixTimestamp: 100}
	gameType, cfg, err := models.ResolveGame(1)
	require.NoError(t, err)

	require.NoError(t, p.NewRound(gameType, cfg, 1, 10, now))
	assert.Equal(t, "1", p.CurrentRound.RoundID.String())
	assert.Zero(t, p.History.Len())

	_, err = p.CurrentRound.Settle([]uint32{0}, now)
	require.NoError(t, err)
	assert.True(t, p.Archive())
	assert.False(t, p.Archive())

	require.NoError(t, p.NewRound(gameType, cfg, 2, 10, now))
	assert.Equal(t, "2", p.CurrentRound.RoundID.String())
	assert.Equal(t, 1, p.History.Len())
}

func TestPlayerStateBinaryLayout(t *testing.T) {
	assert.Equal(t, 79, models.RoundSize)
	assert.Equal(t, 8+48*79, models.HistorySize)

	p := models.NewPlayerState(models.HouseAddress(), "bob")
	gameType, cfg, err := models.ResolveGame(3)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, p.NewRound(gameType, cfg, 7, uint64(i+1), models.Clock{Slot: uint64(i), UnixTimestamp: int64(i) * 20}))
		_, err = p.CurrentRound.Settle([]uint32{uint32(i)}, models.Clock{Slot: uint64(i) + 1, UnixTimestamp: int64(i)*20 + 1})
		require.NoError(t, err)
		p.Archive()
	}
	p.LastAirdropSlot = 77

	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, models.PlayerStateSize)

	var back models.PlayerState
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, *p, back)

	assert.Error(t, back.UnmarshalBinary(data[:len(data)-1]))

	corrupt := append([]byte(nil), data...)
	corrupt[0] = 'X'
	assert.Error(t, back.UnmarshalBinary(corrupt))
}

func TestPlayerStateRejectsLongAddress(t *testing.T) {
	p := models.NewPlayerState(models.HouseAddress(), "carol")
	p.Authority = string(make([]byte, models.AddressLen+1))
	_, err := p.MarshalBinary()
	assert.Error(t, err)
}

func TestGameErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("place bet: %w", models.ErrFlipRequestedTooSoon)
	assert.True(t, errors.Is(wrapped, models.ErrFlipRequestedTooSoon))
	assert.True(t, models.IsRetryable(wrapped))
	assert.False(t, models.IsRetryable(models.ErrInvalidBet))

	ge, ok := models.AsGameError(wrapped)
	require.True(t, ok)
	assert.Equal(t, models.KindValidation, ge.Kind)
	assert.Equal(t, "FlipRequestedTooSoon", ge.Code)
}

func TestAmountFormatting(t *testing.T) {
	assert.Equal(t, "1.500000000", models.FormatAmount(1_500_000_000))
	assert.Equal(t, "0.000000001", models.FormatAmount(1))

	v, err := models.ParseAmount("2.25")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_250_000_000), v)

	_, err = models.ParseAmount("0.0000000001")
	assert.Error(t, err)
	_, err = models.ParseAmount("-1")
	assert.Error(t, err)
}

func TestMaxBetFor(t *testing.T) {
	assert.Equal(t, uint64(100), models.MaxBetFor(1_000))
	assert.Equal(t, models.MaxBetAmount, models.MaxBetFor(^uint64(0)))
}
