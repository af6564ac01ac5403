package ledger

import (
	"strings"

	"github.com/setlabs/serpd/internal/core/types"
)

// The native asset lives in its own singly-keyed table; every other
// asset shares the token table keyed by (account, asset). Keys embed
// the account first so one prefix scan yields all of an account's
// token balances.
const (
	nativePrefix = "n/"
	tokenPrefix  = "t/"
)

func nativeKey(who types.AccountID) string {
	return nativePrefix + string(who)
}

func tokenKey(who types.AccountID, asset types.AssetID) string {
	return tokenPrefix + string(who) + "/" + string(asset)
}

func tokenAccountPrefix(who types.AccountID) string {
	return tokenPrefix + string(who) + "/"
}

// tokenKeyAsset recovers the asset id from a token-table key produced
// by tokenKey for the given account.
func tokenKeyAsset(key string, who types.AccountID) (types.AssetID, bool) {
	prefix := tokenAccountPrefix(who)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return types.AssetID(key[len(prefix):]), true
}
