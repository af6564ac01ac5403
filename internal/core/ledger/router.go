package ledger

import (
	"github.com/setlabs/serpd/internal/core/types"
)

// Router presents the uniform ledger operation set over both balance
// tables. Each public mutator runs in its own transactional scope;
// callers composing multiple legs use Atomically to share one scope.
type Router struct {
	store       View
	native      types.AssetID
	minBalances map[types.AssetID]types.Balance
	sink        types.EventSink
}

// NewRouter creates a router over the given balance view. minBalances
// maps asset ids to their minimum balance; assets without an entry
// have no minimum. sink may be nil to discard events.
func NewRouter(store View, native types.AssetID, minBalances map[types.AssetID]types.Balance, sink types.EventSink) *Router {
	if sink == nil {
		sink = types.NopSink{}
	}
	mins := make(map[types.AssetID]types.Balance, len(minBalances))
	for k, v := range minBalances {
		mins[k] = v
	}
	return &Router{
		store:       store,
		native:      native,
		minBalances: mins,
		sink:        sink,
	}
}

// NativeAsset returns the configured native asset id.
func (r *Router) NativeAsset() types.AssetID { return r.native }

// backend resolves the balance table for an asset once per operation.
func (r *Router) backend(asset types.AssetID) backend {
	if asset == r.native {
		return nativeBackend{id: asset, min: r.minBalances[asset]}
	}
	return tokenBackend{id: asset, min: r.minBalances[asset]}
}

// Atomically runs fn inside one transactional scope. If fn succeeds
// the staged mutations are committed as a single batch and the
// collected events are published; any error discards everything.
func (r *Router) Atomically(fn func(tx *Txn) error) error {
	tx := &Txn{r: r, st: NewStateTable(r.store)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.st.Commit(); err != nil {
		return err
	}
	for _, ev := range tx.events {
		r.sink.Publish(ev)
	}
	return nil
}

// view returns a read-only scope over current state.
func (r *Router) view() *Txn {
	return &Txn{r: r, st: NewStateTable(r.store)}
}

// MinimumBalance returns the configured minimum balance of an asset.
func (r *Router) MinimumBalance(asset types.AssetID) types.Balance {
	return r.backend(asset).minimumBalance()
}

// TotalIssuance returns the total issuance of an asset.
func (r *Router) TotalIssuance(asset types.AssetID) (types.Balance, error) {
	return r.view().TotalIssuance(asset)
}

// TotalBalance returns who's free + reserved balance of an asset.
func (r *Router) TotalBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	return r.view().TotalBalance(asset, who)
}

// FreeBalance returns who's free balance of an asset.
func (r *Router) FreeBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	return r.view().FreeBalance(asset, who)
}

// ReservedBalance returns who's reserved balance of an asset.
func (r *Router) ReservedBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	return r.view().ReservedBalance(asset, who)
}

// EnsureCanWithdraw checks that amount could be withdrawn from who's
// free balance right now.
func (r *Router) EnsureCanWithdraw(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.view().EnsureCanWithdraw(asset, who, amount)
}

// CanSlash reports whether who's free balance covers amount.
func (r *Router) CanSlash(asset types.AssetID, who types.AccountID, amount types.Balance) (bool, error) {
	return r.view().CanSlash(asset, who, amount)
}

// Transfer moves amount between free balances in one atomic step.
func (r *Router) Transfer(asset types.AssetID, from, to types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.Transfer(asset, from, to, amount)
	})
}

// Deposit mints amount into who's free balance.
func (r *Router) Deposit(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.Deposit(asset, who, amount)
	})
}

// Withdraw burns amount from who's free balance.
func (r *Router) Withdraw(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.Withdraw(asset, who, amount)
	})
}

// Slash burns up to amount from who and returns the shortfall.
func (r *Router) Slash(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	var gap types.Balance
	err := r.Atomically(func(tx *Txn) error {
		var err error
		gap, err = tx.Slash(asset, who, amount)
		return err
	})
	return gap, err
}

// Reserve escrows amount of who's free balance.
func (r *Router) Reserve(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.Reserve(asset, who, amount)
	})
}

// Unreserve releases up to amount of who's reserved balance and
// returns what could not be released.
func (r *Router) Unreserve(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	var rest types.Balance
	err := r.Atomically(func(tx *Txn) error {
		var err error
		rest, err = tx.Unreserve(asset, who, amount)
		return err
	})
	return rest, err
}

// SlashReserved burns up to amount from who's reserved balance and
// returns the shortfall.
func (r *Router) SlashReserved(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	var gap types.Balance
	err := r.Atomically(func(tx *Txn) error {
		var err error
		gap, err = tx.SlashReserved(asset, who, amount)
		return err
	})
	return gap, err
}

// RepatriateReserved moves up to amount of slashed's reserved balance
// to beneficiary and returns the unmet remainder.
func (r *Router) RepatriateReserved(
	asset types.AssetID,
	slashed, beneficiary types.AccountID,
	amount types.Balance,
	status types.BalanceStatus,
) (types.Balance, error) {
	var rest types.Balance
	err := r.Atomically(func(tx *Txn) error {
		var err error
		rest, err = tx.RepatriateReserved(asset, slashed, beneficiary, amount, status)
		return err
	})
	return rest, err
}

// SetLock sets a named lock on who's balance of asset.
func (r *Router) SetLock(id types.LockID, asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.SetLock(id, asset, who, amount)
	})
}

// ExtendLock raises a named lock to at least amount.
func (r *Router) ExtendLock(id types.LockID, asset types.AssetID, who types.AccountID, amount types.Balance) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.ExtendLock(id, asset, who, amount)
	})
}

// RemoveLock removes a named lock.
func (r *Router) RemoveLock(id types.LockID, asset types.AssetID, who types.AccountID) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.RemoveLock(id, asset, who)
	})
}

// UpdateBalance applies a signed adjustment to who's free balance.
func (r *Router) UpdateBalance(asset types.AssetID, who types.AccountID, by types.Amount) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.UpdateBalance(asset, who, by)
	})
}

// MergeAccounts consolidates every balance of source into dest inside
// one transactional scope: all token free balances transfer over, the
// native reserved balance is released and the whole native free
// balance follows. Any failing leg (for instance dest falling foul of
// a minimum-balance rule) rolls the entire merge back.
func (r *Router) MergeAccounts(source, dest types.AccountID) error {
	return r.Atomically(func(tx *Txn) error {
		return tx.MergeAccounts(source, dest)
	})
}

// MergeAccounts is the in-scope form of Router.MergeAccounts.
func (tx *Txn) MergeAccounts(source, dest types.AccountID) error {
	if source == dest {
		return nil
	}

	type holding struct {
		asset types.AssetID
		free  types.Balance
	}
	var holdings []holding

	err := tx.st.ForEachAccount(tokenAccountPrefix(source), func(key string, rec AccountRecord) bool {
		asset, ok := tokenKeyAsset(key, source)
		if !ok {
			return true
		}
		if rec.Free > 0 {
			holdings = append(holdings, holding{asset: asset, free: rec.Free})
		}
		return true
	})
	if err != nil {
		return err
	}

	for _, h := range holdings {
		if err := tx.Transfer(h.asset, source, dest, h.free); err != nil {
			return err
		}
	}

	native := tx.r.native
	reserved, err := tx.ReservedBalance(native, source)
	if err != nil {
		return err
	}
	if _, err := tx.Unreserve(native, source, reserved); err != nil {
		return err
	}
	free, err := tx.FreeBalance(native, source)
	if err != nil {
		return err
	}
	return tx.Transfer(native, source, dest, free)
}
