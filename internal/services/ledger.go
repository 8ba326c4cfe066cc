package services

import (
	"vrf-flip-backend/internal/models"

	"github.com/pkg/errors"
)

// Every balance movement in the engine goes through Transfer. The signer
// must own the source account; that guard is the custody model.
func Transfer(tx Tx, kind models.TransferKind, from, to, signer string, amount uint64) (models.Transfer, error) {
	rec := models.Transfer{Kind: kind, From: from, To: to, Authority: signer, Amount: amount}
	if amount == 0 || from == to {
		return rec, nil
	}

	src, err := tx.TokenAccount(from)
	if err != nil {
		return rec, err
	}
	dst, err := tx.TokenAccount(to)
	if err != nil {
		return rec, err
	}

	if src.Closed || dst.Closed {
		return rec, models.ErrAccountClosed
	}
	if src.Owner != signer {
		return rec, models.ErrUnauthorizedTransfer
	}
	if src.Mint != dst.Mint {
		return rec, models.ErrMintMismatch
	}
	if src.Amount < amount {
		return rec, models.ErrTransferUnderflow
	}
	if dst.Amount+amount < dst.Amount {
		return rec, models.ErrArithmeticOverflow
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := tx.PutTokenAccount(src); err != nil {
		return rec, err
	}
	if err := tx.PutTokenAccount(dst); err != nil {
		return rec, err
	}
	return rec, nil
}

// MintTo credits newly issued funds. Issuance itself is not modelled.
func MintTo(tx Tx, address string, amount uint64) (models.Transfer, error) {
	rec := models.Transfer{Kind: models.TransferKindDeposit, To: address, Amount: amount}
	acct, err := tx.TokenAccount(address)
	if err != nil {
		return rec, err
	}
	if acct.Closed {
		return rec, models.ErrAccountClosed
	}
	if acct.Amount+amount < acct.Amount {
		return rec, models.ErrArithmeticOverflow
	}
	acct.Amount += amount
	return rec, tx.PutTokenAccount(acct)
}

// FundEscrow tops the escrow up to required from the player's spendable
// account. An escrow already holding required is left alone, so a retried
// bet never double-funds.
func FundEscrow(tx Tx, player *models.PlayerState, required uint64) (*models.Transfer, error) {
	escrow, err := tx.TokenAccount(player.Escrow)
	if err != nil {
		return nil, err
	}
	if escrow.Amount >= required {
		return nil, nil
	}

	rec, err := Transfer(tx, models.TransferKindFundEscrow, player.RewardAddress, player.Escrow, player.Authority, required-escrow.Amount)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SettleTransfers moves funds for a settled round, signed by the house.
//
// A win pays the winnings from the vault and then drains the whole escrow to
// the reward account. A loss forfeits only the wagered amount; any surplus
// stays in escrow for the next round. escrowChange reports the stake plus
// winnings on a win and the forfeited stake on a loss.
func SettleTransfers(tx Tx, house *models.HouseState, player *models.PlayerState, round models.Round) (escrowChange uint64, transfers []models.Transfer, err error) {
	payout, err := round.PayoutAmount()
	if err != nil {
		return 0, nil, err
	}

	if round.Won() {
		rec, err := Transfer(tx, models.TransferKindPayout, house.HouseVault, player.RewardAddress, house.Address, payout)
		if err != nil {
			return 0, nil, err
		}
		transfers = append(transfers, rec)

		escrow, err := tx.TokenAccount(player.Escrow)
		if err != nil {
			return 0, nil, err
		}
		rec, err = Transfer(tx, models.TransferKindStake, player.Escrow, player.RewardAddress, house.Address, escrow.Amount)
		if err != nil {
			return 0, nil, err
		}
		transfers = append(transfers, rec)
		return payout + round.BetAmount, transfers, nil
	}

	rec, err := Transfer(tx, models.TransferKindForfeit, player.Escrow, house.HouseVault, house.Address, round.BetAmount)
	if err != nil {
		return 0, nil, err
	}
	return round.BetAmount, append(transfers, rec), nil
}

// CloseAccount reclaims an empty account. The record stays behind flagged
// closed so the address cannot be credited or reopened. Escrow and reward
// accounts are created with no close authority, so this always fails for
// them.
func CloseAccount(tx Tx, address, signer string) error {
	acct, err := tx.TokenAccount(address)
	if err != nil {
		return err
	}
	if acct.Closed {
		return models.ErrAccountClosed
	}
	if acct.CloseAuthority == "" {
		return models.ErrCloseAuthorityRevoked
	}
	if acct.CloseAuthority != signer {
		return models.ErrUnauthorizedTransfer
	}
	if acct.Amount != 0 {
		return models.ErrTransferUnderflow
	}
	acct.Owner = ""
	acct.Mint = ""
	acct.Closed = true
	return tx.PutTokenAccount(acct)
}

// openAccount fails with exists when the address is already taken.
func openAccount(tx Tx, exists error, address, mint, owner, closeAuthority string) (*models.TokenAccount, error) {
	if _, err := tx.TokenAccount(address); err == nil {
		return nil, exists
	} else if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}

	acct := &models.TokenAccount{Address: address, Mint: mint, Owner: owner, CloseAuthority: closeAuthority}
	return acct, tx.PutTokenAccount(acct)
}

// SetAuthority reassigns custody or strips the close authority. Only the
// current owner may do either.
func SetAuthority(tx Tx, address, signer, newOwner, newCloseAuthority string) error {
	acct, err := tx.TokenAccount(address)
	if err != nil {
		return err
	}
	if acct.Closed {
		return models.ErrAccountClosed
	}
	if acct.Owner != signer {
		return models.ErrUnauthorizedTransfer
	}
	acct.Owner = newOwner
	acct.CloseAuthority = newCloseAuthority
	return tx.PutTokenAccount(acct)
}
