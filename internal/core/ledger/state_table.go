package ledger

import (
	"sort"
	"strings"

	"github.com/setlabs/serpd/internal/core/types"
)

// StateTable wraps a View and buffers every mutation until Commit.
// Reads observe staged state; dropping the table without committing
// discards all of it. This is the transactional-scope primitive every
// multi-leg operation runs inside: either the whole batch reaches the
// base view or none of it does.
type StateTable struct {
	base     View
	accounts map[string]*trackedAccount
	issuance map[types.AssetID]types.Balance
}

type trackedAccount struct {
	rec     AccountRecord
	deleted bool
}

// NewStateTable creates an empty overlay over base.
func NewStateTable(base View) *StateTable {
	return &StateTable{
		base:     base,
		accounts: make(map[string]*trackedAccount),
		issuance: make(map[types.AssetID]types.Balance),
	}
}

func (t *StateTable) Account(key string) (AccountRecord, bool, error) {
	if e, ok := t.accounts[key]; ok {
		if e.deleted {
			return AccountRecord{}, false, nil
		}
		return e.rec, true, nil
	}
	return t.base.Account(key)
}

func (t *StateTable) Issuance(asset types.AssetID) (types.Balance, error) {
	if v, ok := t.issuance[asset]; ok {
		return v, nil
	}
	return t.base.Issuance(asset)
}

// SetAccount stages a record write. Empty records are staged as
// removals so zero-balance rows are pruned from storage.
func (t *StateTable) SetAccount(key string, rec AccountRecord) error {
	t.accounts[key] = &trackedAccount{rec: rec, deleted: rec.Empty()}
	return nil
}

// RemoveAccount stages a record removal.
func (t *StateTable) RemoveAccount(key string) error {
	t.accounts[key] = &trackedAccount{deleted: true}
	return nil
}

// SetIssuance stages an issuance write.
func (t *StateTable) SetIssuance(asset types.AssetID, v types.Balance) error {
	t.issuance[asset] = v
	return nil
}

func (t *StateTable) ForEachAccount(prefix string, fn func(key string, rec AccountRecord) bool) error {
	// Merge staged entries with the base view: staged keys shadow the
	// base, deletions hide it, and the combined set is visited in
	// ascending key order like a plain view scan would.
	merged := make(map[string]AccountRecord)

	err := t.base.ForEachAccount(prefix, func(key string, rec AccountRecord) bool {
		if _, staged := t.accounts[key]; !staged {
			merged[key] = rec
		}
		return true
	})
	if err != nil {
		return err
	}

	for key, e := range t.accounts {
		if e.deleted || !strings.HasPrefix(key, prefix) {
			continue
		}
		merged[key] = e.rec
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn(k, merged[k]) {
			return nil
		}
	}
	return nil
}

// Apply satisfies View so state tables can nest, though operations in
// this module only ever run one level deep.
func (t *StateTable) Apply(muts []Mutation) error {
	for _, m := range muts {
		switch m.Kind {
		case MutationSetAccount:
			if err := t.SetAccount(m.Key, m.Record); err != nil {
				return err
			}
		case MutationRemoveAccount:
			if err := t.RemoveAccount(m.Key); err != nil {
				return err
			}
		case MutationSetIssuance:
			if err := t.SetIssuance(m.Asset, m.Issuance); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit flushes all staged mutations to the base view as one batch.
func (t *StateTable) Commit() error {
	if len(t.accounts) == 0 && len(t.issuance) == 0 {
		return nil
	}

	muts := make([]Mutation, 0, len(t.accounts)+len(t.issuance))

	// Deterministic ordering keeps replay identical across nodes.
	accountKeys := make([]string, 0, len(t.accounts))
	for k := range t.accounts {
		accountKeys = append(accountKeys, k)
	}
	sort.Strings(accountKeys)

	for _, k := range accountKeys {
		e := t.accounts[k]
		if e.deleted {
			muts = append(muts, Mutation{Kind: MutationRemoveAccount, Key: k})
		} else {
			muts = append(muts, Mutation{Kind: MutationSetAccount, Key: k, Record: e.rec})
		}
	}

	assets := make([]string, 0, len(t.issuance))
	for a := range t.issuance {
		assets = append(assets, string(a))
	}
	sort.Strings(assets)

	for _, a := range assets {
		asset := types.AssetID(a)
		muts = append(muts, Mutation{Kind: MutationSetIssuance, Asset: asset, Issuance: t.issuance[asset]})
	}

	return t.base.Apply(muts)
}
