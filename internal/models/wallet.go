package models

// TokenAccount holds a balance of one mint. Owner is the only identity allowed
// to move funds out; an empty CloseAuthority means nobody can close it.
// A closed account keeps its address reserved and never moves funds again.
type TokenAccount struct {
	Address        string `json:"address"`
	Mint           string `json:"mint"`
	Owner          string `json:"owner"`
	CloseAuthority string `json:"close_authority"`
	Amount         uint64 `json:"amount"`
	Closed         bool   `json:"closed,omitempty"`
}

type BalanceResponse struct {
	Spendable   uint64 `json:"spendable"`
	SpendableUI string `json:"spendable_ui"`
	Escrow      uint64 `json:"escrow"`
	EscrowUI    string `json:"escrow_ui"`
	FeeWallet   uint64 `json:"fee_wallet"`
	HouseVault  uint64 `json:"house_vault"`
	MaxBet      uint64 `json:"max_bet"`
}

// MaxBetFor is the largest bet the vault can currently cover.
func MaxBetFor(vaultBalance uint64) uint64 {
	limit := vaultBalance / HouseLiquidityDivisor
	if limit > MaxBetAmount {
		return MaxBetAmount
	}
	return limit
}
