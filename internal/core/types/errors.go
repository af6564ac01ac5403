package types

import "errors"

var (
	// ErrZeroPrice indicates a supplied or computed price (or another
	// divisor derived from one) was zero.
	ErrZeroPrice = errors.New("price is zero")

	// ErrSupplyOverflow indicates issuance arithmetic would exceed the
	// representable balance range while expanding supply.
	ErrSupplyOverflow = errors.New("supply overflow")

	// ErrSupplyUnderflow indicates issuance arithmetic would fall below
	// zero while contracting supply.
	ErrSupplyUnderflow = errors.New("supply underflow")

	// ErrAmountIntoBalanceFailed indicates a signed delta's magnitude
	// does not fit in the balance range.
	ErrAmountIntoBalanceFailed = errors.New("amount does not fit into balance")

	// ErrBalanceTooLow indicates insufficient free or reserved balance
	// for a requested debit, or a credit that would leave the receiver
	// below the asset's minimum balance.
	ErrBalanceTooLow = errors.New("balance too low")

	// ErrCannotSerpNativeAsset indicates expand or contract supply was
	// invoked with the native asset id.
	ErrCannotSerpNativeAsset = errors.New("cannot serp the native asset")

	// ErrUnauthorized indicates the calling origin lacks the privilege
	// required by the operation.
	ErrUnauthorized = errors.New("unauthorized origin")
)
