package types

import "math"

// AssetID identifies a currency tracked by the ledger. Exactly one
// asset id is configured as the native collateral asset; every other
// id is a pegged settcurrency.
type AssetID string

// AccountID is an opaque account identity. Resolution and
// authentication of identities happens outside the core.
type AccountID string

// Balance is a non-negative quantity of an asset. Prices and ratios
// are fixed-point values scaled by the configured base unit, carried
// in the same type.
type Balance = uint64

// Amount is a signed balance adjustment used by UpdateBalance.
type Amount = int64

// LockID names a balance lock.
type LockID string

// BalanceStatus selects the destination book of a repatriated
// reserved balance.
type BalanceStatus int

const (
	// Free moves the repatriated value into the beneficiary's free balance.
	Free BalanceStatus = iota
	// Reserved moves the repatriated value into the beneficiary's reserved balance.
	Reserved
)

// AmountToBalance converts a signed adjustment into its magnitude.
// math.MinInt64 has no int64 negation and is rejected rather than
// silently truncated.
func AmountToBalance(a Amount) (Balance, error) {
	if a == math.MinInt64 {
		return 0, ErrAmountIntoBalanceFailed
	}
	if a < 0 {
		return Balance(-a), nil
	}
	return Balance(a), nil
}
