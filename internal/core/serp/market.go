package serp

import (
	"errors"
	"fmt"

	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/types"
)

// Params are the immutable monetary-policy constants of a deployment.
// They are validated once at construction; a Market never starts with
// an inconsistent policy.
type Params struct {
	// NativeAsset is the collateral asset; it is never serped.
	NativeAsset types.AssetID
	// BaseUnit is the fixed-point scale of prices and ratios.
	BaseUnit types.Balance
	// SerpQuoteMultiple scales the price premium quoted to serpers.
	SerpQuoteMultiple types.Balance
	// SerperRatio is the reserve providers' share of an expansion,
	// as a fraction of BaseUnit.
	SerperRatio types.Balance
	// SettPayRatio is the treasury's share of an expansion, as a
	// fraction of BaseUnit.
	SettPayRatio types.Balance
	// Treasury receives the SettPay share of minted supply.
	Treasury types.AccountID
	// Serper is the reserve-provider account.
	Serper types.AccountID
	// Policy selects the serp-up settlement formula variant.
	Policy SettlementPolicy
}

// Validate refuses any parameter set violating the policy invariants,
// most importantly that the two distribution ratios cover exactly one
// base unit.
func (p Params) Validate() error {
	if p.NativeAsset == "" {
		return errors.New("native asset id must be set")
	}
	if p.BaseUnit == 0 {
		return errors.New("base unit must be positive")
	}
	if p.Treasury == "" || p.Serper == "" {
		return errors.New("treasury and serper accounts must be set")
	}
	if p.Treasury == p.Serper {
		return errors.New("treasury and serper accounts must be distinct")
	}
	sum, err := addBalance(p.SerperRatio, p.SettPayRatio)
	if err != nil || sum != p.BaseUnit {
		return fmt.Errorf("serper ratio %d + settpay ratio %d must equal base unit %d",
			p.SerperRatio, p.SettPayRatio, p.BaseUnit)
	}
	if p.Policy == "" {
		return errors.New("settlement policy must be set")
	}
	if !p.Policy.Valid() {
		return fmt.Errorf("unknown settlement policy %q", p.Policy)
	}
	return nil
}

// Market executes supply expansions and contractions against the
// ledger, and dispatches the signed/privileged operation surface.
type Market struct {
	params Params
	router *ledger.Router
}

// NewMarket validates params and binds the market to a router.
func NewMarket(params Params, router *ledger.Router) (*Market, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market params: %w", err)
	}
	if params.NativeAsset != router.NativeAsset() {
		return nil, fmt.Errorf("market native asset %q does not match router native asset %q",
			params.NativeAsset, router.NativeAsset())
	}
	return &Market{params: params, router: router}, nil
}

// Params returns the market's policy constants.
func (m *Market) Params() Params { return m.params }

// Router exposes the ledger surface for read accessors.
func (m *Market) Router() *ledger.Router { return m.router }

// Transfer moves amount of asset from the signing origin to dest.
func (m *Market) Transfer(origin types.Origin, asset types.AssetID, dest types.AccountID, amount types.Balance) error {
	from, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	return m.router.Transfer(asset, from, dest, amount)
}

// TransferNative moves amount of the native asset from the signing
// origin to dest.
func (m *Market) TransferNative(origin types.Origin, dest types.AccountID, amount types.Balance) error {
	from, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	return m.router.Transfer(m.params.NativeAsset, from, dest, amount)
}

// UpdateBalance applies a signed adjustment to who's free balance.
// Root only.
func (m *Market) UpdateBalance(origin types.Origin, asset types.AssetID, who types.AccountID, by types.Amount) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return m.router.UpdateBalance(asset, who, by)
}

// MergeAccounts consolidates every balance of source into dest.
// Root only.
func (m *Market) MergeAccounts(origin types.Origin, source, dest types.AccountID) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return m.router.MergeAccounts(source, dest)
}

// distro returns the share of amount given by ratio/baseUnit.
func (m *Market) distro(amount, ratio types.Balance) (types.Balance, error) {
	scaled, err := mulBalance(amount, ratio)
	if err != nil {
		return 0, err
	}
	return scaled / m.params.BaseUnit, nil
}

// ExpandSupply mints expandBy of a pegged asset: the SettPay share
// goes to the treasury's free balance, the serper share is minted
// into the reserve provider's escrow, and the provider's reserved
// native collateral is slashed by the quoted settlement amount. The
// whole operation is one transactional scope. Root only.
func (m *Market) ExpandSupply(origin types.Origin, asset types.AssetID, expandBy, quotePrice types.Balance) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	if asset == m.params.NativeAsset {
		return types.ErrCannotSerpNativeAsset
	}
	if quotePrice == 0 {
		return types.ErrZeroPrice
	}

	return m.router.Atomically(func(tx *ledger.Txn) error {
		supply, err := tx.TotalIssuance(asset)
		if err != nil {
			return err
		}

		quote, err := QuoteSerpup(supply, expandBy, m.params.BaseUnit, m.params.SerpQuoteMultiple, quotePrice, m.params.Policy)
		if err != nil {
			return err
		}

		settpayDistro, err := m.distro(expandBy, m.params.SettPayRatio)
		if err != nil {
			return err
		}
		serperDistro, err := m.distro(expandBy, m.params.SerperRatio)
		if err != nil {
			return err
		}

		if err := tx.Deposit(asset, m.params.Treasury, settpayDistro); err != nil {
			return err
		}
		if err := tx.Deposit(asset, m.params.Serper, serperDistro); err != nil {
			return err
		}
		if err := tx.Reserve(asset, m.params.Serper, serperDistro); err != nil {
			return err
		}
		if _, err := tx.SlashReserved(m.params.NativeAsset, m.params.Serper, quote.PayByQuoted); err != nil {
			return err
		}

		tx.Emit(types.Event{Kind: types.EventSerpedUpSupply, Asset: asset, Amount: expandBy})
		tx.Emit(types.Event{Kind: types.EventNewPrice, Asset: asset, Amount: quote.SerpQuotedPrice})
		return nil
	})
}

// ContractSupply burns contractBy of a pegged asset from the reserve
// provider's escrow and mints the quoted native settlement back into
// the provider's escrowed native balance. The whole operation is one
// transactional scope. Root only.
func (m *Market) ContractSupply(origin types.Origin, asset types.AssetID, contractBy, quotePrice types.Balance) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	if asset == m.params.NativeAsset {
		return types.ErrCannotSerpNativeAsset
	}
	if quotePrice == 0 {
		return types.ErrZeroPrice
	}

	return m.router.Atomically(func(tx *ledger.Txn) error {
		supply, err := tx.TotalIssuance(asset)
		if err != nil {
			return err
		}
		reserved, err := tx.ReservedBalance(asset, m.params.Serper)
		if err != nil {
			return err
		}
		if contractBy > reserved {
			return types.ErrBalanceTooLow
		}

		quote, err := QuoteSerpdown(supply, contractBy, m.params.BaseUnit, m.params.SerpQuoteMultiple, quotePrice)
		if err != nil {
			return err
		}

		if _, err := tx.SlashReserved(asset, m.params.Serper, contractBy); err != nil {
			return err
		}
		if err := tx.Deposit(m.params.NativeAsset, m.params.Serper, quote.PayByQuoted); err != nil {
			return err
		}
		if err := tx.Reserve(m.params.NativeAsset, m.params.Serper, quote.PayByQuoted); err != nil {
			return err
		}

		tx.Emit(types.Event{Kind: types.EventSerpedDownSupply, Asset: asset, Amount: contractBy})
		tx.Emit(types.Event{Kind: types.EventNewPrice, Asset: asset, Amount: quote.SerpQuotedPrice})
		return nil
	})
}
