package ledger

import (
	"github.com/setlabs/serpd/internal/core/types"
)

// Txn is one transactional scope over the ledger. Every mutator
// stages its changes in the underlying StateTable; the Router commits
// the scope as a whole and publishes the collected events only after
// the commit succeeds.
type Txn struct {
	r      *Router
	st     *StateTable
	events []types.Event
}

// Emit queues an event for publication after commit.
func (tx *Txn) Emit(ev types.Event) {
	tx.events = append(tx.events, ev)
}

func (tx *Txn) account(b backend, who types.AccountID) (AccountRecord, error) {
	rec, _, err := tx.st.Account(b.key(who))
	return rec, err
}

func (tx *Txn) setAccount(b backend, who types.AccountID, rec AccountRecord) error {
	return tx.st.SetAccount(b.key(who), rec)
}

// MinimumBalance returns the configured minimum balance of an asset.
func (tx *Txn) MinimumBalance(asset types.AssetID) types.Balance {
	return tx.r.backend(asset).minimumBalance()
}

// TotalIssuance returns the total issuance of an asset.
func (tx *Txn) TotalIssuance(asset types.AssetID) (types.Balance, error) {
	return tx.st.Issuance(asset)
}

// FreeBalance returns who's free balance of an asset.
func (tx *Txn) FreeBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	rec, err := tx.account(tx.r.backend(asset), who)
	if err != nil {
		return 0, err
	}
	return rec.Free, nil
}

// ReservedBalance returns who's reserved balance of an asset.
func (tx *Txn) ReservedBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	rec, err := tx.account(tx.r.backend(asset), who)
	if err != nil {
		return 0, err
	}
	return rec.Reserved, nil
}

// TotalBalance returns who's free + reserved balance of an asset.
func (tx *Txn) TotalBalance(asset types.AssetID, who types.AccountID) (types.Balance, error) {
	rec, err := tx.account(tx.r.backend(asset), who)
	if err != nil {
		return 0, err
	}
	return rec.Total(), nil
}

// EnsureCanWithdraw fails with ErrBalanceTooLow if amount cannot be
// withdrawn from who's free balance, either because the balance is
// insufficient or because the remaining free balance would fall below
// the frozen (locked) amount.
func (tx *Txn) EnsureCanWithdraw(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	rec, err := tx.account(tx.r.backend(asset), who)
	if err != nil {
		return err
	}
	return ensureCanWithdraw(rec, amount)
}

func ensureCanWithdraw(rec AccountRecord, amount types.Balance) error {
	if rec.Free < amount {
		return types.ErrBalanceTooLow
	}
	if rec.Free-amount < rec.Frozen() {
		return types.ErrBalanceTooLow
	}
	return nil
}

// ensureRespectsMinimum rejects a credit that would leave the
// receiving account's total balance below the asset's minimum.
func ensureRespectsMinimum(b backend, rec AccountRecord) error {
	if min := b.minimumBalance(); min > 0 && rec.Total() < min {
		return types.ErrBalanceTooLow
	}
	return nil
}

// Deposit mints amount into who's free balance. A zero amount is a
// no-op with no event.
func (tx *Txn) Deposit(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := tx.deposit(asset, who, amount); err != nil {
		return err
	}
	tx.Emit(types.Event{Kind: types.EventDeposited, Asset: asset, Who: who, Amount: amount})
	return nil
}

func (tx *Txn) deposit(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	b := tx.r.backend(asset)

	issuance, err := tx.st.Issuance(asset)
	if err != nil {
		return err
	}
	newIssuance, err := checkedAdd(issuance, amount)
	if err != nil {
		return err
	}

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}
	rec.Free, err = checkedAdd(rec.Free, amount)
	if err != nil {
		return err
	}
	if err := ensureRespectsMinimum(b, rec); err != nil {
		return err
	}

	if err := tx.st.SetIssuance(asset, newIssuance); err != nil {
		return err
	}
	return tx.setAccount(b, who, rec)
}

// Withdraw burns amount from who's free balance. A zero amount is a
// no-op with no event.
func (tx *Txn) Withdraw(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := tx.withdraw(asset, who, amount); err != nil {
		return err
	}
	tx.Emit(types.Event{Kind: types.EventWithdrawn, Asset: asset, Who: who, Amount: amount})
	return nil
}

func (tx *Txn) withdraw(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}
	if err := ensureCanWithdraw(rec, amount); err != nil {
		return err
	}

	issuance, err := tx.st.Issuance(asset)
	if err != nil {
		return err
	}
	newIssuance, err := checkedSub(issuance, amount)
	if err != nil {
		return err
	}

	rec.Free -= amount
	if err := tx.st.SetIssuance(asset, newIssuance); err != nil {
		return err
	}
	return tx.setAccount(b, who, rec)
}

// Transfer moves amount of asset from one free balance to another as a
// single atomic step. Transfers of zero or to self change nothing and
// emit no event.
func (tx *Txn) Transfer(asset types.AssetID, from, to types.AccountID, amount types.Balance) error {
	if amount == 0 || from == to {
		return nil
	}
	b := tx.r.backend(asset)

	fromRec, err := tx.account(b, from)
	if err != nil {
		return err
	}
	if err := ensureCanWithdraw(fromRec, amount); err != nil {
		return err
	}

	toRec, err := tx.account(b, to)
	if err != nil {
		return err
	}
	toRec.Free, err = checkedAdd(toRec.Free, amount)
	if err != nil {
		return err
	}
	if err := ensureRespectsMinimum(b, toRec); err != nil {
		return err
	}

	fromRec.Free -= amount
	if err := tx.setAccount(b, from, fromRec); err != nil {
		return err
	}
	if err := tx.setAccount(b, to, toRec); err != nil {
		return err
	}

	tx.Emit(types.Event{Kind: types.EventTransferred, Asset: asset, From: from, To: to, Amount: amount})
	return nil
}

// CanSlash reports whether who's free balance covers amount.
func (tx *Txn) CanSlash(asset types.AssetID, who types.AccountID, amount types.Balance) (bool, error) {
	free, err := tx.FreeBalance(asset, who)
	if err != nil {
		return false, err
	}
	return free >= amount, nil
}

// Slash burns up to amount from who, free balance first and reserved
// second, and returns the unslashed remainder. This is the best-effort
// debit primitive: a shortfall is reported, not an error.
func (tx *Txn) Slash(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	if amount == 0 {
		return 0, nil
	}
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return 0, err
	}

	fromFree := minBal(rec.Free, amount)
	fromReserved := minBal(rec.Reserved, amount-fromFree)
	slashed := fromFree + fromReserved
	if slashed == 0 {
		return amount, nil
	}

	issuance, err := tx.st.Issuance(asset)
	if err != nil {
		return 0, err
	}
	newIssuance, err := checkedSub(issuance, slashed)
	if err != nil {
		return 0, err
	}

	rec.Free -= fromFree
	rec.Reserved -= fromReserved
	if err := tx.st.SetIssuance(asset, newIssuance); err != nil {
		return 0, err
	}
	if err := tx.setAccount(b, who, rec); err != nil {
		return 0, err
	}
	return amount - slashed, nil
}

// Reserve moves amount from who's free balance into the reserved
// balance. Fails with ErrBalanceTooLow if the free balance cannot
// cover it.
func (tx *Txn) Reserve(asset types.AssetID, who types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}
	if err := ensureCanWithdraw(rec, amount); err != nil {
		return err
	}

	rec.Free -= amount
	rec.Reserved, err = checkedAdd(rec.Reserved, amount)
	if err != nil {
		return err
	}
	return tx.setAccount(b, who, rec)
}

// Unreserve moves up to amount from who's reserved balance back to the
// free balance and returns the remainder it could not unreserve.
func (tx *Txn) Unreserve(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	if amount == 0 {
		return 0, nil
	}
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return 0, err
	}

	actual := minBal(rec.Reserved, amount)
	if actual == 0 {
		return amount, nil
	}

	rec.Reserved -= actual
	rec.Free, err = checkedAdd(rec.Free, actual)
	if err != nil {
		return 0, err
	}
	if err := tx.setAccount(b, who, rec); err != nil {
		return 0, err
	}
	return amount - actual, nil
}

// SlashReserved burns up to amount from who's reserved balance and
// returns the unslashed remainder.
func (tx *Txn) SlashReserved(asset types.AssetID, who types.AccountID, amount types.Balance) (types.Balance, error) {
	if amount == 0 {
		return 0, nil
	}
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return 0, err
	}

	actual := minBal(rec.Reserved, amount)
	if actual == 0 {
		return amount, nil
	}

	issuance, err := tx.st.Issuance(asset)
	if err != nil {
		return 0, err
	}
	newIssuance, err := checkedSub(issuance, actual)
	if err != nil {
		return 0, err
	}

	rec.Reserved -= actual
	if err := tx.st.SetIssuance(asset, newIssuance); err != nil {
		return 0, err
	}
	if err := tx.setAccount(b, who, rec); err != nil {
		return 0, err
	}
	return amount - actual, nil
}

// RepatriateReserved moves up to amount from slashed's reserved
// balance into beneficiary's free or reserved balance per status, and
// returns the unmet remainder. Issuance is unchanged: value moves
// between accounts, none is minted or burned.
func (tx *Txn) RepatriateReserved(
	asset types.AssetID,
	slashed, beneficiary types.AccountID,
	amount types.Balance,
	status types.BalanceStatus,
) (types.Balance, error) {
	if amount == 0 {
		return 0, nil
	}
	b := tx.r.backend(asset)

	if slashed == beneficiary {
		// Moving within one account: Free degenerates to unreserve,
		// Reserved to a no-op bounded by what is actually reserved.
		if status == types.Free {
			return tx.Unreserve(asset, slashed, amount)
		}
		rec, err := tx.account(b, slashed)
		if err != nil {
			return 0, err
		}
		if rec.Reserved >= amount {
			return 0, nil
		}
		return amount - rec.Reserved, nil
	}

	slashedRec, err := tx.account(b, slashed)
	if err != nil {
		return 0, err
	}
	actual := minBal(slashedRec.Reserved, amount)
	if actual == 0 {
		return amount, nil
	}

	benRec, err := tx.account(b, beneficiary)
	if err != nil {
		return 0, err
	}
	switch status {
	case types.Free:
		benRec.Free, err = checkedAdd(benRec.Free, actual)
	case types.Reserved:
		benRec.Reserved, err = checkedAdd(benRec.Reserved, actual)
	}
	if err != nil {
		return 0, err
	}
	if err := ensureRespectsMinimum(b, benRec); err != nil {
		return 0, err
	}

	slashedRec.Reserved -= actual
	if err := tx.setAccount(b, slashed, slashedRec); err != nil {
		return 0, err
	}
	if err := tx.setAccount(b, beneficiary, benRec); err != nil {
		return 0, err
	}
	return amount - actual, nil
}

// SetLock sets the lock identified by id to amount, replacing any
// previous amount under the same id. A zero amount removes the lock.
func (tx *Txn) SetLock(id types.LockID, asset types.AssetID, who types.AccountID, amount types.Balance) error {
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}

	if amount == 0 {
		rec.Locks = removeLock(rec.Locks, id)
		return tx.setAccount(b, who, rec)
	}

	rec.Locks = upsertLock(rec.Locks, id, amount)
	return tx.setAccount(b, who, rec)
}

// ExtendLock raises the lock identified by id to at least amount; an
// existing larger lock is left alone.
func (tx *Txn) ExtendLock(id types.LockID, asset types.AssetID, who types.AccountID, amount types.Balance) error {
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}

	for _, l := range rec.Locks {
		if l.ID == id && l.Amount >= amount {
			return nil
		}
	}
	rec.Locks = upsertLock(rec.Locks, id, amount)
	return tx.setAccount(b, who, rec)
}

// RemoveLock removes the lock identified by id.
func (tx *Txn) RemoveLock(id types.LockID, asset types.AssetID, who types.AccountID) error {
	b := tx.r.backend(asset)

	rec, err := tx.account(b, who)
	if err != nil {
		return err
	}
	rec.Locks = removeLock(rec.Locks, id)
	return tx.setAccount(b, who, rec)
}

// UpdateBalance applies a signed adjustment to who's free balance:
// positive deposits, negative withdraws. The magnitude must convert
// into the balance range.
func (tx *Txn) UpdateBalance(asset types.AssetID, who types.AccountID, by types.Amount) error {
	if by == 0 {
		return nil
	}
	amount, err := types.AmountToBalance(by)
	if err != nil {
		return err
	}
	if by > 0 {
		err = tx.deposit(asset, who, amount)
	} else {
		err = tx.withdraw(asset, who, amount)
	}
	if err != nil {
		return err
	}
	tx.Emit(types.Event{Kind: types.EventBalanceUpdated, Asset: asset, Who: who, Amount: amount})
	return nil
}

func upsertLock(locks []BalanceLock, id types.LockID, amount types.Balance) []BalanceLock {
	for i := range locks {
		if locks[i].ID == id {
			locks[i].Amount = amount
			return locks
		}
	}
	return append(locks, BalanceLock{ID: id, Amount: amount})
}

func removeLock(locks []BalanceLock, id types.LockID) []BalanceLock {
	out := locks[:0]
	for _, l := range locks {
		if l.ID != id {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
