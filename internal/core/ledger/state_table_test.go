package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlabs/serpd/internal/core/types"
)

func TestStateTableShadowsBase(t *testing.T) {
	base := newMemView()
	base.accounts["n/alice"] = AccountRecord{Free: 100}
	base.issuance["DNAR"] = 100

	st := NewStateTable(base)

	require.NoError(t, st.SetAccount("n/alice", AccountRecord{Free: 250}))
	require.NoError(t, st.SetIssuance("DNAR", 250))

	rec, ok, err := st.Account("n/alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Balance(250), rec.Free)

	issuance, err := st.Issuance("DNAR")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(250), issuance)

	// Nothing reaches the base until Commit.
	assert.Equal(t, types.Balance(100), base.accounts["n/alice"].Free)
	assert.Equal(t, types.Balance(100), base.issuance["DNAR"])
}

func TestStateTableCommit(t *testing.T) {
	base := newMemView()
	base.accounts["n/alice"] = AccountRecord{Free: 100}

	st := NewStateTable(base)
	require.NoError(t, st.SetAccount("n/alice", AccountRecord{Free: 40}))
	require.NoError(t, st.SetAccount("n/bob", AccountRecord{Free: 60}))
	require.NoError(t, st.SetIssuance("DNAR", 100))
	require.NoError(t, st.Commit())

	assert.Equal(t, types.Balance(40), base.accounts["n/alice"].Free)
	assert.Equal(t, types.Balance(60), base.accounts["n/bob"].Free)
	assert.Equal(t, types.Balance(100), base.issuance["DNAR"])
}

func TestStateTableDiscard(t *testing.T) {
	base := newMemView()
	base.accounts["n/alice"] = AccountRecord{Free: 100}

	st := NewStateTable(base)
	require.NoError(t, st.SetAccount("n/alice", AccountRecord{Free: 1}))
	require.NoError(t, st.RemoveAccount("n/alice"))

	// The table goes out of scope uncommitted; the base is untouched.
	assert.Equal(t, types.Balance(100), base.accounts["n/alice"].Free)
}

func TestStateTableEmptyRecordCommitsAsRemoval(t *testing.T) {
	base := newMemView()
	base.accounts["t/alice/SETT"] = AccountRecord{Free: 10}

	st := NewStateTable(base)
	require.NoError(t, st.SetAccount("t/alice/SETT", AccountRecord{}))

	_, ok, err := st.Account("t/alice/SETT")
	require.NoError(t, err)
	assert.False(t, ok, "staged empty record should read as absent")

	require.NoError(t, st.Commit())
	_, exists := base.accounts["t/alice/SETT"]
	assert.False(t, exists)
}

func TestStateTableForEachAccount(t *testing.T) {
	base := newMemView()
	base.accounts["t/alice/AAA"] = AccountRecord{Free: 1}
	base.accounts["t/alice/BBB"] = AccountRecord{Free: 2}
	base.accounts["t/bob/AAA"] = AccountRecord{Free: 9}

	st := NewStateTable(base)
	// Stage one update, one new row, and one deletion under the prefix.
	require.NoError(t, st.SetAccount("t/alice/BBB", AccountRecord{Free: 20}))
	require.NoError(t, st.SetAccount("t/alice/CCC", AccountRecord{Free: 3}))
	require.NoError(t, st.RemoveAccount("t/alice/AAA"))

	var keys []string
	var sum types.Balance
	err := st.ForEachAccount("t/alice/", func(key string, rec AccountRecord) bool {
		keys = append(keys, key)
		sum += rec.Free
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"t/alice/BBB", "t/alice/CCC"}, keys)
	assert.Equal(t, types.Balance(23), sum)
}

func TestStateTableForEachAccountStops(t *testing.T) {
	base := newMemView()
	base.accounts["t/alice/AAA"] = AccountRecord{Free: 1}
	base.accounts["t/alice/BBB"] = AccountRecord{Free: 2}

	st := NewStateTable(base)
	var visited int
	err := st.ForEachAccount("t/alice/", func(string, AccountRecord) bool {
		visited++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}
