package ledger

import (
	"github.com/setlabs/serpd/internal/core/types"
)

// backend is the capability resolved once per operation: it binds an
// asset id to the balance table holding it. The native asset maps to
// the singly-keyed native table, everything else to the shared token
// table; all balance math upstream of key derivation is identical.
type backend interface {
	asset() types.AssetID
	key(who types.AccountID) string
	minimumBalance() types.Balance
}

type nativeBackend struct {
	id  types.AssetID
	min types.Balance
}

func (b nativeBackend) asset() types.AssetID           { return b.id }
func (b nativeBackend) key(who types.AccountID) string { return nativeKey(who) }
func (b nativeBackend) minimumBalance() types.Balance  { return b.min }

type tokenBackend struct {
	id  types.AssetID
	min types.Balance
}

func (b tokenBackend) asset() types.AssetID           { return b.id }
func (b tokenBackend) key(who types.AccountID) string { return tokenKey(who, b.id) }
func (b tokenBackend) minimumBalance() types.Balance  { return b.min }
