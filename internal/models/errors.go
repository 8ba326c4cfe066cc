package models

import "errors"

type ErrorKind int

const (
	// KindValidation is caller-correctable and never mutates state.
	KindValidation ErrorKind = iota
	// KindState means the round is in the wrong lifecycle state for the call.
	KindState
	// KindAuthenticity means a settlement did not come from the bound request.
	KindAuthenticity
	KindArithmetic
	KindCustody
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAuthenticity:
		return "authenticity"
	case KindArithmetic:
		return "arithmetic"
	case KindCustody:
		return "custody"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// GameError is a named engine condition. Callers compare with errors.Is
// against the package-level values.
type GameError struct {
	Code      string
	Kind      ErrorKind
	Message   string
	Retryable bool
}

func (e *GameError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidGameType = &GameError{Code: "InvalidGameType", Kind: KindValidation, Message: "failed to match the game type"}
	ErrInvalidBet      = &GameError{Code: "InvalidBet", Kind: KindValidation, Message: "guess is outside the game range"}
	ErrInvalidIdentity = &GameError{Code: "InvalidIdentity", Kind: KindValidation, Message: "identity must be 1-64 printable ascii characters"}

	ErrMaxBetAmountExceeded = &GameError{Code: "MaxBetAmountExceeded", Kind: KindValidation, Message: "max bet exceeded"}
	ErrInsufficientFunds    = &GameError{Code: "InsufficientFunds", Kind: KindValidation, Message: "insufficient funds to place bet", Retryable: true}
	ErrFlipRequestedTooSoon = &GameError{Code: "FlipRequestedTooSoon", Kind: KindValidation, Message: "player can flip once every 10 seconds", Retryable: true}

	ErrCurrentRoundStillActive   = &GameError{Code: "CurrentRoundStillActive", Kind: KindState, Message: "current round is still active", Retryable: true}
	ErrCurrentRoundAlreadyClosed = &GameError{Code: "CurrentRoundAlreadyClosed", Kind: KindState, Message: "current round has already settled"}

	ErrInvalidVrfAuthority      = &GameError{Code: "InvalidVrfAuthority", Kind: KindAuthenticity, Message: "randomness response was not produced for this player's request"}
	ErrIncorrectVrfCounter      = &GameError{Code: "IncorrectVrfCounter", Kind: KindAuthenticity, Message: "randomness counter does not match the expected round id"}
	ErrInvalidInitialVrfCounter = &GameError{Code: "InvalidInitialVrfCounter", Kind: KindAuthenticity, Message: "randomness request counter should be 0 for a new player"}
	ErrOracleQueueMismatch      = &GameError{Code: "OracleQueueMismatch", Kind: KindAuthenticity, Message: "randomness request belongs to a different oracle function"}
	ErrInvalidRandomnessResult  = &GameError{Code: "InvalidRandomnessResult", Kind: KindAuthenticity, Message: "randomness response carries too few values"}

	ErrArithmeticOverflow = &GameError{Code: "ArithmeticOverflow", Kind: KindArithmetic, Message: "arithmetic overflow"}

	ErrUnauthorizedTransfer  = &GameError{Code: "UnauthorizedTransfer", Kind: KindCustody, Message: "signer is not the account owner"}
	ErrMintMismatch          = &GameError{Code: "MintMismatch", Kind: KindCustody, Message: "accounts hold different mints"}
	ErrTransferUnderflow     = &GameError{Code: "TransferUnderflow", Kind: KindCustody, Message: "source account balance is too low"}
	ErrCloseAuthorityRevoked = &GameError{Code: "CloseAuthorityRevoked", Kind: KindCustody, Message: "account close authority has been revoked"}
	ErrAccountClosed         = &GameError{Code: "AccountClosed", Kind: KindCustody, Message: "account has been closed"}
	ErrUnauthorized          = &GameError{Code: "Unauthorized", Kind: KindCustody, Message: "signer is not the house authority"}

	ErrHouseNotInitialized      = &GameError{Code: "HouseNotInitialized", Kind: KindNotFound, Message: "house has not been initialized"}
	ErrHouseAlreadyInitialized  = &GameError{Code: "HouseAlreadyInitialized", Kind: KindState, Message: "house already exists"}
	ErrPlayerNotFound           = &GameError{Code: "PlayerNotFound", Kind: KindNotFound, Message: "player account not found"}
	ErrPlayerAlreadyInitialized = &GameError{Code: "PlayerAlreadyInitialized", Kind: KindState, Message: "player account already exists"}
	ErrAccountNotFound          = &GameError{Code: "AccountNotFound", Kind: KindNotFound, Message: "account not found"}
)

// AsGameError unwraps err to a *GameError when it carries one.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsRetryable reports whether the same request may succeed later without
// being changed (cooldown, funding, a live round).
func IsRetryable(err error) bool {
	ge, ok := AsGameError(err)
	return ok && ge.Retryable
}
