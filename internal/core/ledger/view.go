package ledger

import (
	"github.com/setlabs/serpd/internal/core/types"
)

// BalanceLock earmarks a portion of an account's free balance. Locked
// funds still count toward the total balance; they only restrict how
// much of the free balance may be moved.
type BalanceLock struct {
	ID     types.LockID  `codec:"id"`
	Amount types.Balance `codec:"amount"`
}

// AccountRecord is the per-(asset, account) balance row.
type AccountRecord struct {
	Free     types.Balance `codec:"free"`
	Reserved types.Balance `codec:"reserved"`
	Locks    []BalanceLock `codec:"locks,omitempty"`
}

// Total returns free + reserved. Record arithmetic keeps both fields
// within Balance range, so this cannot overflow.
func (r AccountRecord) Total() types.Balance {
	return r.Free + r.Reserved
}

// Frozen returns the largest single lock amount; the free balance may
// not drop below it.
func (r AccountRecord) Frozen() types.Balance {
	var frozen types.Balance
	for _, l := range r.Locks {
		if l.Amount > frozen {
			frozen = l.Amount
		}
	}
	return frozen
}

// Empty reports whether the record holds nothing worth storing.
func (r AccountRecord) Empty() bool {
	return r.Free == 0 && r.Reserved == 0 && len(r.Locks) == 0
}

// MutationKind discriminates staged storage mutations.
type MutationKind int

const (
	MutationSetAccount MutationKind = iota
	MutationRemoveAccount
	MutationSetIssuance
)

// Mutation is one staged storage change. A StateTable buffers
// mutations and applies them to the base view as a single batch.
type Mutation struct {
	Kind     MutationKind
	Key      string
	Record   AccountRecord
	Asset    types.AssetID
	Issuance types.Balance
}

// View is the storage collaborator contract: keyed balance records,
// per-asset issuance rows, prefix iteration, and atomic application of
// a mutation batch.
type View interface {
	// Account returns the record at key and whether it exists.
	Account(key string) (AccountRecord, bool, error)

	// Issuance returns the total issuance of an asset (zero if the
	// asset has never been issued).
	Issuance(asset types.AssetID) (types.Balance, error)

	// ForEachAccount visits every record whose key starts with prefix,
	// in ascending key order. Returning false stops the iteration.
	ForEachAccount(prefix string, fn func(key string, rec AccountRecord) bool) error

	// Apply commits a batch of mutations atomically.
	Apply(muts []Mutation) error
}
