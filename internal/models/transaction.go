package models

type TransferKind string

const (
	TransferKindFundEscrow TransferKind = "fund_escrow"
	TransferKindPayout     TransferKind = "payout"
	TransferKindStake      TransferKind = "stake_return"
	TransferKindForfeit    TransferKind = "forfeit"
	TransferKindRequestFee TransferKind = "request_fee"
	TransferKindFeeConsume TransferKind = "fee_consume"
	TransferKindDeposit    TransferKind = "deposit"
)

// Transfer records one custody movement applied inside an engine operation.
type Transfer struct {
	Kind      TransferKind `json:"kind"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to"`
	Authority string       `json:"authority"`
	Amount    uint64       `json:"amount"`
}
