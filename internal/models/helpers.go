package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	HouseSeed         = "HOUSESEED"
	UserSeed          = "USERSEEDV1"
	EscrowSeed        = "ESCROW"
	RewardSeed        = "REWARD"
	FeeWalletSeed     = "FEEWALLET"
	RequestSeed       = "REQUEST"
	RequestEscrowSeed = "REQUESTESCROW"
	VaultSeed         = "VAULT"
	OracleFeeSeed     = "ORACLEFEE"

	// AddressLen is the fixed width of every identity and address field.
	AddressLen = 64

	TokenDecimals = 9
)

// DeriveAddress deterministically derives a sub-account address from seeds.
func DeriveAddress(seeds ...string) string {
	h := sha256.New()
	for _, s := range seeds {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func HouseAddress() string {
	return DeriveAddress(HouseSeed)
}

func PlayerAddress(house, authority string) string {
	return DeriveAddress(UserSeed, house, authority)
}

func ValidateIdentity(id string) error {
	if id == "" || len(id) > AddressLen {
		return fmt.Errorf("identity must be 1-%d bytes, got %d", AddressLen, len(id))
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return fmt.Errorf("identity must be printable ascii without spaces")
		}
	}
	return nil
}

func GenerateSessionID() string {
	return uuid.New().String()
}

// FormatAmount renders base units with TokenDecimals places.
func FormatAmount(amount uint64) string {
	d, _ := decimal.NewFromString(strconv.FormatUint(amount, 10))
	return d.Shift(-TokenDecimals).StringFixed(TokenDecimals)
}

// ParseAmount converts a UI amount ("1.5") into base units.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	base := d.Shift(TokenDecimals)
	if base.IsNegative() || !base.Equal(base.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	v, err := strconv.ParseUint(base.String(), 10, 64)
	if err != nil {
		return 0, ErrArithmeticOverflow
	}
	return v, nil
}
