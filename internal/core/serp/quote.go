// Package serp implements the supply-rebalancing policy: a pure quote
// engine pricing expansions and contractions, and the Market that
// executes them against the ledger.
package serp

import (
	"math/bits"

	"github.com/setlabs/serpd/internal/core/types"
)

// SettlementPolicy selects the final step of the serp-up settlement
// formula. Deployments disagree on whether the expansion is divided or
// multiplied by the relative price, so the choice is a configuration
// parameter rather than a hard-coded formula.
type SettlementPolicy string

const (
	// SettleQuotedDivide divides the expansion by the relative price.
	SettleQuotedDivide SettlementPolicy = "quoted-divide"
	// SettleQuotedMultiply multiplies the expansion by the relative price.
	SettleQuotedMultiply SettlementPolicy = "quoted-multiply"
)

// Valid reports whether p names a known settlement policy.
func (p SettlementPolicy) Valid() bool {
	return p == SettleQuotedDivide || p == SettleQuotedMultiply
}

func mulBalance(a, b types.Balance) (types.Balance, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, types.ErrSupplyOverflow
	}
	return lo, nil
}

func addBalance(a, b types.Balance) (types.Balance, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, types.ErrSupplyOverflow
	}
	return sum, nil
}

func satSub(a, b types.Balance) types.Balance {
	if a < b {
		return 0
	}
	return a - b
}

// PegPrice is the canonical representation of a pegged asset's price
// in terms of its peg unit: basePrice * baseUnit.
func PegPrice(basePrice, baseUnit types.Balance) (types.Balance, error) {
	return mulBalance(basePrice, baseUnit)
}

// RelativePrice returns both directions of the exchange ratio between
// two assets; the caller picks the direction matching the trade.
func RelativePrice(basePrice, quotePrice types.Balance) (quotePerBase, basePerQuote types.Balance, err error) {
	if basePrice == 0 || quotePrice == 0 {
		return 0, 0, types.ErrZeroPrice
	}
	return quotePrice / basePrice, basePrice / quotePrice, nil
}

// QuoteSerpPrice computes the premium-adjusted price used to value a
// serp expansion:
//
//	fraction   = price / baseUnit
//	fractioned = max(fraction - 1, 0)
//	quotation  = fractioned * serpQuoteMultiple
//	quoted     = fraction + quotation
func QuoteSerpPrice(price, baseUnit, serpQuoteMultiple types.Balance) (types.Balance, error) {
	if baseUnit == 0 {
		return 0, types.ErrZeroPrice
	}
	fraction := price / baseUnit
	fractioned := satSub(fraction, 1)
	quotation, err := mulBalance(fractioned, serpQuoteMultiple)
	if err != nil {
		return 0, err
	}
	return addBalance(fraction, quotation)
}

// SerpupQuote is the priced outcome of a supply expansion.
type SerpupQuote struct {
	// PayByQuoted is the native-asset amount the reserve provider pays
	// for the newly minted reward.
	PayByQuoted types.Balance
	// SerpQuotedPrice is the premium-adjusted settlement price.
	SerpQuotedPrice types.Balance
}

// QuoteSerpup prices a supply expansion of expandBy against the
// current supply and the externally quoted native-asset price.
func QuoteSerpup(supply, expandBy, baseUnit, serpQuoteMultiple, quotePrice types.Balance, policy SettlementPolicy) (SerpupQuote, error) {
	if quotePrice == 0 {
		return SerpupQuote{}, types.ErrZeroPrice
	}
	if supply == 0 || baseUnit == 0 {
		return SerpupQuote{}, types.ErrZeroPrice
	}

	newSupply, err := addBalance(supply, expandBy)
	if err != nil {
		return SerpupQuote{}, err
	}
	scaled, err := mulBalance(newSupply, baseUnit)
	if err != nil {
		return SerpupQuote{}, err
	}
	newBasePrice := scaled / supply

	fractioned := satSub(newBasePrice, baseUnit)
	quotation, err := mulBalance(fractioned, serpQuoteMultiple)
	if err != nil {
		return SerpupQuote{}, err
	}

	serpQuotedPrice := satSub(newBasePrice, quotation)
	if serpQuotedPrice == 0 {
		return SerpupQuote{}, types.ErrZeroPrice
	}

	relative := quotePrice / serpQuotedPrice
	if relative == 0 {
		return SerpupQuote{}, types.ErrZeroPrice
	}

	var pay types.Balance
	switch policy {
	case SettleQuotedMultiply:
		pay, err = mulBalance(expandBy, relative)
		if err != nil {
			return SerpupQuote{}, err
		}
	default:
		pay = expandBy / relative
	}

	return SerpupQuote{PayByQuoted: pay, SerpQuotedPrice: serpQuotedPrice}, nil
}

// PaySerpupByQuoted returns only the settlement amount of QuoteSerpup.
func PaySerpupByQuoted(supply, expandBy, baseUnit, serpQuoteMultiple, quotePrice types.Balance, policy SettlementPolicy) (types.Balance, error) {
	q, err := QuoteSerpup(supply, expandBy, baseUnit, serpQuoteMultiple, quotePrice, policy)
	if err != nil {
		return 0, err
	}
	return q.PayByQuoted, nil
}

// SerpdownQuote is the priced outcome of a supply contraction.
type SerpdownQuote struct {
	// PayByQuoted is the native-asset amount owed back to the reserve
	// provider for burning pegged supply.
	PayByQuoted types.Balance
	// SerpQuotedPrice is the premium-adjusted settlement price.
	SerpQuotedPrice types.Balance
}

// QuoteSerpdown prices a supply contraction of contractBy against the
// current supply and the externally quoted native-asset price.
func QuoteSerpdown(supply, contractBy, baseUnit, serpQuoteMultiple, quotePrice types.Balance) (SerpdownQuote, error) {
	if quotePrice == 0 {
		return SerpdownQuote{}, types.ErrZeroPrice
	}
	if supply == 0 || baseUnit == 0 {
		return SerpdownQuote{}, types.ErrZeroPrice
	}
	if contractBy > supply {
		return SerpdownQuote{}, types.ErrSupplyUnderflow
	}

	newSupply := supply - contractBy
	scaled, err := mulBalance(newSupply, baseUnit)
	if err != nil {
		return SerpdownQuote{}, err
	}
	newBasePrice := scaled / supply

	fractioned := satSub(baseUnit, newBasePrice)
	quotation, err := mulBalance(fractioned, serpQuoteMultiple)
	if err != nil {
		return SerpdownQuote{}, err
	}
	serpQuotedPrice, err := addBalance(quotation, newBasePrice)
	if err != nil {
		return SerpdownQuote{}, err
	}

	relative := serpQuotedPrice / quotePrice
	pay, err := mulBalance(relative, contractBy)
	if err != nil {
		return SerpdownQuote{}, err
	}

	return SerpdownQuote{PayByQuoted: pay / baseUnit, SerpQuotedPrice: serpQuotedPrice}, nil
}

// PaySerpdownByQuoted returns only the settlement amount of QuoteSerpdown.
func PaySerpdownByQuoted(supply, contractBy, baseUnit, serpQuoteMultiple, quotePrice types.Balance) (types.Balance, error) {
	q, err := QuoteSerpdown(supply, contractBy, baseUnit, serpQuoteMultiple, quotePrice)
	if err != nil {
		return 0, err
	}
	return q.PayByQuoted, nil
}
