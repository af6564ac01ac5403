package balancestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/types"
	"github.com/setlabs/serpd/internal/storage/kv/memory"
)

func TestStoreAccountRoundTrip(t *testing.T) {
	s := New(memory.NewDB())

	rec := ledger.AccountRecord{
		Free:     100,
		Reserved: 40,
		Locks:    []ledger.BalanceLock{{ID: "vest", Amount: 25}},
	}
	require.NoError(t, s.Apply([]ledger.Mutation{
		{Kind: ledger.MutationSetAccount, Key: "t/alice/SETT", Record: rec},
	}))

	got, ok, err := s.Account("t/alice/SETT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestStoreAbsentReads(t *testing.T) {
	s := New(memory.NewDB())

	_, ok, err := s.Account("t/nobody/SETT")
	require.NoError(t, err)
	assert.False(t, ok)

	issuance, err := s.Issuance("SETT")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(0), issuance)
}

func TestStoreIssuance(t *testing.T) {
	s := New(memory.NewDB())

	require.NoError(t, s.Apply([]ledger.Mutation{
		{Kind: ledger.MutationSetIssuance, Asset: "SETT", Issuance: 1_000_000},
	}))

	issuance, err := s.Issuance("SETT")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1_000_000), issuance)
}

func TestStoreApplyBatch(t *testing.T) {
	s := New(memory.NewDB())

	require.NoError(t, s.Apply([]ledger.Mutation{
		{Kind: ledger.MutationSetAccount, Key: "n/alice", Record: ledger.AccountRecord{Free: 10}},
		{Kind: ledger.MutationSetAccount, Key: "n/bob", Record: ledger.AccountRecord{Free: 20}},
		{Kind: ledger.MutationSetIssuance, Asset: "DNAR", Issuance: 30},
	}))
	require.NoError(t, s.Apply([]ledger.Mutation{
		{Kind: ledger.MutationRemoveAccount, Key: "n/alice"},
	}))

	_, ok, err := s.Account("n/alice")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := s.Account("n/bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Balance(20), got.Free)
}

func TestStoreForEachAccount(t *testing.T) {
	s := New(memory.NewDB())

	require.NoError(t, s.Apply([]ledger.Mutation{
		{Kind: ledger.MutationSetAccount, Key: "t/alice/AAA", Record: ledger.AccountRecord{Free: 1}},
		{Kind: ledger.MutationSetAccount, Key: "t/alice/BBB", Record: ledger.AccountRecord{Free: 2}},
		{Kind: ledger.MutationSetAccount, Key: "t/bob/AAA", Record: ledger.AccountRecord{Free: 9}},
	}))

	var keys []string
	err := s.ForEachAccount("t/alice/", func(key string, rec ledger.AccountRecord) bool {
		keys = append(keys, key)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t/alice/AAA", "t/alice/BBB"}, keys)

	// Early stop.
	var visited int
	err = s.ForEachAccount("t/", func(string, ledger.AccountRecord) bool {
		visited++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}
