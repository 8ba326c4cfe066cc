package services

import (
	"context"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/models"
	"vrf-flip-backend/internal/oracle"

	"github.com/pkg/errors"
)

type Asset string

const (
	AssetValue Asset = "value"
	AssetFee   Asset = "fee"
)

type HouseParams struct {
	Authority        string `json:"authority" binding:"required"`
	Mint             string `json:"mint" binding:"required"`
	FeeMint          string `json:"fee_mint" binding:"required"`
	OracleFunction   string `json:"oracle_function" binding:"required"`
	OracleSigner     string `json:"oracle_signer" binding:"required"`
	RequestFee       uint64 `json:"request_fee"`
	InitialLiquidity uint64 `json:"initial_liquidity"`
}

// GameEngine owns every state transition of houses, players and rounds.
// Each operation is one Store.Update; notifications and oracle dispatch
// happen only after it commits.
type GameEngine struct {
	store       Store
	clock       ClockSource
	dispatcher  oracle.Dispatcher
	broadcaster Broadcaster
}

func NewGameEngine(store Store, clock ClockSource) *GameEngine {
	return &GameEngine{
		store:       store,
		clock:       clock,
		broadcaster: MultiBroadcaster{},
	}
}

// SetDispatcher wires the oracle. Without one, rounds stay Awaiting until a
// result is submitted directly.
func (ge *GameEngine) SetDispatcher(d oracle.Dispatcher) {
	ge.dispatcher = d
}

func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

func (ge *GameEngine) reject(ctx context.Context, op string, err error) error {
	code := "Internal"
	if gerr, ok := models.AsGameError(err); ok {
		code = gerr.Code
		logger.Warn(ctx).Str("operation", op).Str("code", code).Bool("retryable", gerr.Retryable).Msg(gerr.Message)
	} else {
		logger.Error(ctx).Err(err).Str("operation", op).Msg("engine operation failed")
	}
	Rejections.WithLabelValues(op, code).Inc()
	return err
}

func (ge *GameEngine) InitializeHouse(ctx context.Context, p HouseParams) (*models.HouseState, error) {
	for _, id := range []string{p.Authority, p.Mint, p.FeeMint, p.OracleFunction} {
		if err := models.ValidateIdentity(id); err != nil {
			return nil, ge.reject(ctx, "initialize_house", errors.Wrap(models.ErrInvalidIdentity, err.Error()))
		}
	}

	now := ge.clock.Now()
	var house *models.HouseState
	err := ge.store.Update(ctx, func(tx Tx) error {
		if _, err := tx.House(); err == nil {
			return models.ErrHouseAlreadyInitialized
		} else if !errors.Is(err, models.ErrHouseNotInitialized) {
			return err
		}

		address := models.HouseAddress()
		house = &models.HouseState{
			Address:          address,
			Authority:        p.Authority,
			Mint:             p.Mint,
			FeeMint:          p.FeeMint,
			HouseVault:       models.DeriveAddress(models.VaultSeed, address),
			OracleFunction:   p.OracleFunction,
			OracleSigner:     p.OracleSigner,
			OracleFeeVault:   models.DeriveAddress(models.OracleFeeSeed, address),
			RequestFee:       p.RequestFee,
			CreatedSlot:      now.Slot,
			CreatedTimestamp: now.UnixTimestamp,
		}

		if _, err := openAccount(tx, models.ErrHouseAlreadyInitialized, house.HouseVault, house.Mint, address, ""); err != nil {
			return err
		}
		if _, err := openAccount(tx, models.ErrHouseAlreadyInitialized, house.OracleFeeVault, house.FeeMint, address, ""); err != nil {
			return err
		}
		if _, err := MintTo(tx, house.HouseVault, p.InitialLiquidity); err != nil {
			return err
		}
		return tx.PutHouse(house)
	})
	if err != nil {
		return nil, ge.reject(ctx, "initialize_house", err)
	}

	HouseVaultBalance.Set(float64(p.InitialLiquidity))
	logger.Info(ctx).Str("house", house.Address).Str("authority", house.Authority).Uint64("liquidity", p.InitialLiquidity).Msg("house initialized")
	return house, nil
}

// UpdateOracleBinding rotates the oracle function and its signer key.
// Requests already in flight under the old binding can no longer settle.
func (ge *GameEngine) UpdateOracleBinding(ctx context.Context, authority, function, signer string) (*models.HouseState, error) {
	var house *models.HouseState
	err := ge.store.Update(ctx, func(tx Tx) error {
		h, err := tx.House()
		if err != nil {
			return err
		}
		if h.Authority != authority {
			return models.ErrUnauthorized
		}
		h.OracleFunction = function
		h.OracleSigner = signer
		house = h
		return tx.PutHouse(h)
	})
	if err != nil {
		return nil, ge.reject(ctx, "update_oracle", err)
	}

	logger.Info(ctx).Str("function", function).Msg("oracle binding updated")
	return house, nil
}

// InitializePlayer provisions the player record and its accounts. The
// escrow is opened by the player and then handed to the house with its
// close authority stripped; the reward account keeps the player as owner
// but can never be closed.
func (ge *GameEngine) InitializePlayer(ctx context.Context, authority string) (*models.PlayerState, error) {
	if err := models.ValidateIdentity(authority); err != nil {
		return nil, ge.reject(ctx, "initialize_player", errors.Wrap(models.ErrInvalidIdentity, err.Error()))
	}

	var player *models.PlayerState
	err := ge.store.Update(ctx, func(tx Tx) error {
		house, err := tx.House()
		if err != nil {
			return err
		}

		p := models.NewPlayerState(house.Address, authority)
		if _, err := tx.Player(p.Address); err == nil {
			return models.ErrPlayerAlreadyInitialized
		} else if !errors.Is(err, models.ErrPlayerNotFound) {
			return err
		}

		exists := models.ErrPlayerAlreadyInitialized
		if _, err := openAccount(tx, exists, p.Escrow, house.Mint, authority, authority); err != nil {
			return err
		}
		if err := SetAuthority(tx, p.Escrow, authority, house.Address, ""); err != nil {
			return err
		}
		if _, err := openAccount(tx, exists, p.RewardAddress, house.Mint, authority, authority); err != nil {
			return err
		}
		if err := SetAuthority(tx, p.RewardAddress, authority, authority, ""); err != nil {
			return err
		}
		if _, err := openAccount(tx, exists, p.FeeWallet, house.FeeMint, authority, authority); err != nil {
			return err
		}

		request, err := tx.Request(p.RandomnessRequest)
		switch {
		case err == nil:
			if !request.Counter.IsZero() {
				return models.ErrInvalidInitialVrfCounter
			}
		case errors.Is(err, models.ErrAccountNotFound):
			request = &models.RandomnessRequest{
				Address:   p.RandomnessRequest,
				Authority: p.Address,
				Function:  house.OracleFunction,
				Escrow:    models.DeriveAddress(models.RequestEscrowSeed, p.RandomnessRequest),
				Status:    models.RequestStatusIdle,
			}
			if _, err := openAccount(tx, exists, request.Escrow, house.FeeMint, request.Address, ""); err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.PutRequest(request); err != nil {
			return err
		}
		player = p
		return tx.PutPlayer(p)
	})
	if err != nil {
		return nil, ge.reject(ctx, "initialize_player", err)
	}

	logger.Info(ctx).Str("player", player.Address).Str("authority", authority).Msg("player initialized")
	return player, nil
}

// Deposit credits a player's spendable or fee wallet.
func (ge *GameEngine) Deposit(ctx context.Context, authority string, asset Asset, amount uint64) (*models.Transfer, error) {
	var rec models.Transfer
	err := ge.store.Update(ctx, func(tx Tx) error {
		player, err := tx.Player(models.PlayerAddress(models.HouseAddress(), authority))
		if err != nil {
			return err
		}

		target := player.RewardAddress
		if asset == AssetFee {
			target = player.FeeWallet
		}
		rec, err = MintTo(tx, target, amount)
		return err
	})
	if err != nil {
		return nil, ge.reject(ctx, "deposit", err)
	}

	logger.Info(ctx).Str("authority", authority).Str("asset", string(asset)).Uint64("amount", amount).Msg("deposit credited")
	return &rec, nil
}

// validateBet runs every placement check in a fixed order and touches no
// state.
func validateBet(tx Tx, house *models.HouseState, player *models.PlayerState, req models.BetRequest, now models.Clock) (models.GameType, models.GameConfig, error) {
	if player.CurrentRound.IsOpen(now) {
		return 0, models.GameConfig{}, models.ErrCurrentRoundStillActive
	}

	gameType, cfg, err := models.ResolveGame(req.GameType)
	if err != nil {
		return 0, models.GameConfig{}, err
	}
	if req.Amount == 0 || req.Guess < cfg.Min || req.Guess > cfg.Max {
		return 0, models.GameConfig{}, models.ErrInvalidBet
	}

	vault, err := tx.TokenAccount(house.HouseVault)
	if err != nil {
		return 0, models.GameConfig{}, err
	}
	if req.Amount > models.MaxBetAmount || req.Amount*models.HouseLiquidityDivisor > vault.Amount {
		return 0, models.GameConfig{}, models.ErrMaxBetAmountExceeded
	}

	lastRequest := player.CurrentRound.RequestTimestamp
	if lastRequest != 0 && now.UnixTimestamp-models.BetCooldown < lastRequest {
		return 0, models.GameConfig{}, models.ErrFlipRequestedTooSoon
	}

	spendable, err := tx.TokenAccount(player.RewardAddress)
	if err != nil {
		return 0, models.GameConfig{}, err
	}
	if spendable.Closed {
		return 0, models.GameConfig{}, models.ErrAccountClosed
	}
	if spendable.Amount < req.Amount {
		return 0, models.GameConfig{}, models.ErrInsufficientFunds
	}

	if house.RequestFee > 0 {
		request, err := tx.Request(player.RandomnessRequest)
		if err != nil {
			return 0, models.GameConfig{}, err
		}
		feeWallet, err := tx.TokenAccount(player.FeeWallet)
		if err != nil {
			return 0, models.GameConfig{}, err
		}
		requestEscrow, err := tx.TokenAccount(request.Escrow)
		if err != nil {
			return 0, models.GameConfig{}, err
		}
		if feeWallet.Closed || requestEscrow.Closed {
			return 0, models.GameConfig{}, models.ErrAccountClosed
		}
		combined := feeWallet.Amount + requestEscrow.Amount
		if combined >= feeWallet.Amount && combined < house.RequestFee {
			return 0, models.GameConfig{}, models.ErrInsufficientFunds
		}
	}

	return gameType, cfg, nil
}

// requestRandomness rebinds the player's single request resource to the
// new round and prepays its fee.
func requestRandomness(tx Tx, house *models.HouseState, player *models.PlayerState, numWords uint8, now models.Clock) (*oracle.Request, error) {
	request, err := tx.Request(player.RandomnessRequest)
	if err != nil {
		return nil, err
	}
	if request.Authority != player.Address {
		return nil, models.ErrInvalidVrfAuthority
	}

	if house.RequestFee > 0 {
		escrow, err := tx.TokenAccount(request.Escrow)
		if err != nil {
			return nil, err
		}
		if escrow.Amount < house.RequestFee {
			if _, err := Transfer(tx, models.TransferKindRequestFee, player.FeeWallet, request.Escrow, player.Authority, house.RequestFee-escrow.Amount); err != nil {
				return nil, err
			}
		}
	}

	request.Function = house.OracleFunction
	request.Counter = player.CurrentRound.RoundID
	request.Status = models.RequestStatusPending
	request.RequestSlot = now.Slot
	request.RequestTimestamp = now.UnixTimestamp
	request.FulfilledSlot = 0
	request.FulfilledTimestamp = 0
	if err := tx.PutRequest(request); err != nil {
		return nil, err
	}

	return &oracle.Request{
		Request:   request.Address,
		Player:    player.Address,
		Function:  request.Function,
		Counter:   request.Counter,
		NumWords:  numWords,
		Slot:      now.Slot,
		Timestamp: now.UnixTimestamp,
	}, nil
}

// PlaceBet validates, funds escrow, opens the next round and requests
// randomness for it. The result is applied later by Settle.
func (ge *GameEngine) PlaceBet(ctx context.Context, authority string, req models.BetRequest) (*models.RoundAccepted, error) {
	now := ge.clock.Now()

	var (
		oracleReq *oracle.Request
		placed    models.BetPlaced
		vault     uint64
	)
	err := ge.store.Update(ctx, func(tx Tx) error {
		house, err := tx.House()
		if err != nil {
			return err
		}
		player, err := tx.Player(models.PlayerAddress(house.Address, authority))
		if err != nil {
			return err
		}

		gameType, cfg, err := validateBet(tx, house, player, req, now)
		if err != nil {
			return err
		}

		if _, err := FundEscrow(tx, player, req.Amount); err != nil {
			return err
		}
		if err := player.NewRound(gameType, cfg, req.Guess, req.Amount, now); err != nil {
			return err
		}
		oracleReq, err = requestRandomness(tx, house, player, cfg.NumRandomValues, now)
		if err != nil {
			return err
		}
		if err := tx.PutPlayer(player); err != nil {
			return err
		}

		vaultAcct, err := tx.TokenAccount(house.HouseVault)
		if err != nil {
			return err
		}
		vault = vaultAcct.Amount

		placed = models.BetPlaced{
			RoundID:   player.CurrentRound.RoundID,
			Player:    player.Address,
			Authority: authority,
			GameType:  gameType,
			BetAmount: req.Amount,
			Guess:     req.Guess,
			Slot:      now.Slot,
			Timestamp: now.UnixTimestamp,
		}
		return nil
	})
	if err != nil {
		return nil, ge.reject(ctx, "place_bet", err)
	}

	BetsPlaced.WithLabelValues(placed.GameType.String()).Inc()
	AmountWagered.WithLabelValues(placed.GameType.String()).Add(float64(placed.BetAmount))
	HouseVaultBalance.Set(float64(vault))
	logger.Info(ctx).
		Str("player", placed.Player).
		Str("round_id", placed.RoundID.String()).
		Str("game", placed.GameType.String()).
		Uint64("bet", placed.BetAmount).
		Uint32("guess", placed.Guess).
		Msg("bet placed")

	if ge.dispatcher != nil {
		if err := ge.dispatcher.Dispatch(ctx, *oracleReq); err != nil {
			OracleDispatchFailures.Inc()
			logger.Error(ctx).Err(err).Str("request", oracleReq.Request).Str("round_id", placed.RoundID.String()).Msg("failed to dispatch randomness request")
		}
	}
	ge.broadcaster.BroadcastBetPlaced(ctx, placed)

	return &models.RoundAccepted{RoundID: placed.RoundID, Request: oracleReq.Request}, nil
}

// Settle applies a signed oracle response to the round its request is bound
// to. Authenticity is checked before anything moves; the reduction, the
// transfers, the fee and the history write then commit together.
func (ge *GameEngine) Settle(ctx context.Context, requestAddress, token string) (*models.RoundSettled, error) {
	now := ge.clock.Now()

	var (
		settled models.BetSettled
		result  models.RoundSettled
		vault   uint64
	)
	err := ge.store.Update(ctx, func(tx Tx) error {
		request, err := tx.Request(requestAddress)
		if errors.Is(err, models.ErrAccountNotFound) {
			return models.ErrInvalidVrfAuthority
		} else if err != nil {
			return err
		}
		player, err := tx.Player(request.Authority)
		if errors.Is(err, models.ErrPlayerNotFound) {
			return models.ErrInvalidVrfAuthority
		} else if err != nil {
			return err
		}
		if player.RandomnessRequest != request.Address {
			return models.ErrInvalidVrfAuthority
		}

		if player.CurrentRound.Status != models.RoundStatusAwaiting || request.Status != models.RequestStatusPending {
			return models.ErrCurrentRoundAlreadyClosed
		}

		house, err := tx.House()
		if err != nil {
			return err
		}
		if request.Function != house.OracleFunction {
			return models.ErrOracleQueueMismatch
		}
		resp, err := oracle.Verify(token, house.OracleSigner)
		if err != nil {
			return errors.Wrap(models.ErrInvalidVrfAuthority, err.Error())
		}
		if resp.Request != request.Address || resp.Player != player.Address || resp.Function != request.Function {
			return models.ErrInvalidVrfAuthority
		}

		if !resp.Counter.Equal(request.Counter) || !request.Counter.Equal(player.CurrentRound.RoundID) {
			return models.ErrIncorrectVrfCounter
		}

		won, err := player.CurrentRound.Settle(resp.Words, now)
		if err != nil {
			return err
		}
		payout, err := player.CurrentRound.PayoutAmount()
		if err != nil {
			return err
		}
		escrowChange, transfers, err := SettleTransfers(tx, house, player, player.CurrentRound)
		if err != nil {
			return err
		}

		if house.RequestFee > 0 {
			escrow, err := tx.TokenAccount(request.Escrow)
			if err != nil {
				return err
			}
			fee := house.RequestFee
			if escrow.Amount < fee {
				fee = escrow.Amount
			}
			rec, err := Transfer(tx, models.TransferKindFeeConsume, request.Escrow, house.OracleFeeVault, request.Address, fee)
			if err != nil {
				return err
			}
			transfers = append(transfers, rec)
		}

		request.Status = models.RequestStatusFulfilled
		request.FulfilledSlot = now.Slot
		request.FulfilledTimestamp = now.UnixTimestamp
		if err := tx.PutRequest(request); err != nil {
			return err
		}

		player.Archive()
		if err := tx.PutPlayer(player); err != nil {
			return err
		}

		vaultAcct, err := tx.TokenAccount(house.HouseVault)
		if err != nil {
			return err
		}
		vault = vaultAcct.Amount

		round := player.CurrentRound
		settled = models.BetSettled{
			RoundID:      round.RoundID,
			Player:       player.Address,
			Authority:    player.Authority,
			Won:          won,
			GameType:     round.GameType,
			BetAmount:    round.BetAmount,
			Payout:       payout,
			EscrowChange: escrowChange,
			Guess:        round.Guess,
			Result:       round.Result,
			Slot:         now.Slot,
			Timestamp:    now.UnixTimestamp,
		}
		result = models.RoundSettled{
			RoundID:   round.RoundID,
			Won:       won,
			Payout:    payout,
			Result:    round.Result,
			Transfers: transfers,
		}
		return nil
	})
	if err != nil {
		return nil, ge.reject(ctx, "settle", err)
	}

	outcome := "loss"
	if settled.Won {
		outcome = "win"
	}
	Settlements.WithLabelValues(settled.GameType.String(), outcome).Inc()
	HouseVaultBalance.Set(float64(vault))
	logger.Info(ctx).
		Str("player", settled.Player).
		Str("round_id", settled.RoundID.String()).
		Str("game", settled.GameType.String()).
		Uint32("guess", settled.Guess).
		Uint32("result", settled.Result).
		Str("outcome", outcome).
		Uint64("payout", settled.Payout).
		Msg("round settled")

	ge.broadcaster.BroadcastBetSettled(ctx, settled)
	return &result, nil
}

// SubmitResult lets an in-process oracle runner settle directly.
func (ge *GameEngine) SubmitResult(ctx context.Context, request, token string) error {
	_, err := ge.Settle(ctx, request, token)
	return err
}

// CloseAccount attempts to reclaim one of the player's accounts.
func (ge *GameEngine) CloseAccount(ctx context.Context, address, signer string) error {
	err := ge.store.Update(ctx, func(tx Tx) error {
		return CloseAccount(tx, address, signer)
	})
	if err != nil {
		return ge.reject(ctx, "close_account", err)
	}
	return nil
}

func (ge *GameEngine) GetHouse(ctx context.Context) (*models.HouseState, error) {
	var house *models.HouseState
	err := ge.store.View(ctx, func(tx Tx) error {
		var err error
		house, err = tx.House()
		return err
	})
	return house, err
}

func (ge *GameEngine) GetPlayer(ctx context.Context, authority string) (*models.PlayerState, error) {
	var player *models.PlayerState
	err := ge.store.View(ctx, func(tx Tx) error {
		var err error
		player, err = tx.Player(models.PlayerAddress(models.HouseAddress(), authority))
		return err
	})
	return player, err
}

func (ge *GameEngine) GetRequest(ctx context.Context, authority string) (*models.RandomnessRequest, error) {
	var request *models.RandomnessRequest
	err := ge.store.View(ctx, func(tx Tx) error {
		player, err := tx.Player(models.PlayerAddress(models.HouseAddress(), authority))
		if err != nil {
			return err
		}
		request, err = tx.Request(player.RandomnessRequest)
		return err
	})
	return request, err
}

func (ge *GameEngine) History(ctx context.Context, authority string) (*models.HistoryView, error) {
	player, err := ge.GetPlayer(ctx, authority)
	if err != nil {
		return nil, err
	}
	view := player.History.View()
	return &view, nil
}

func (ge *GameEngine) GetBalance(ctx context.Context, authority string) (*models.BalanceResponse, error) {
	var resp models.BalanceResponse
	err := ge.store.View(ctx, func(tx Tx) error {
		house, err := tx.House()
		if err != nil {
			return err
		}
		player, err := tx.Player(models.PlayerAddress(house.Address, authority))
		if err != nil {
			return err
		}

		balances := make(map[string]uint64, 4)
		for _, addr := range []string{player.RewardAddress, player.Escrow, player.FeeWallet, house.HouseVault} {
			acct, err := tx.TokenAccount(addr)
			if err != nil {
				return err
			}
			balances[addr] = acct.Amount
		}

		resp = models.BalanceResponse{
			Spendable:   balances[player.RewardAddress],
			SpendableUI: models.FormatAmount(balances[player.RewardAddress]),
			Escrow:      balances[player.Escrow],
			EscrowUI:    models.FormatAmount(balances[player.Escrow]),
			FeeWallet:   balances[player.FeeWallet],
			HouseVault:  balances[house.HouseVault],
			MaxBet:      models.MaxBetFor(balances[house.HouseVault]),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (ge *GameEngine) TokenBalance(ctx context.Context, address string) (uint64, error) {
	var amount uint64
	err := ge.store.View(ctx, func(tx Tx) error {
		acct, err := tx.TokenAccount(address)
		if err != nil {
			return err
		}
		amount = acct.Amount
		return nil
	})
	return amount, err
}
