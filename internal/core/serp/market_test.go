package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/types"
	"github.com/setlabs/serpd/internal/storage/balancestore"
	"github.com/setlabs/serpd/internal/storage/kv/memory"
)

const (
	native types.AssetID = "DNAR"
	sett   types.AssetID = "SETT"
)

type recordSink struct {
	events []types.Event
}

func (s *recordSink) Publish(ev types.Event) {
	s.events = append(s.events, ev)
}

func testParams() Params {
	return Params{
		NativeAsset:       native,
		BaseUnit:          1_000,
		SerpQuoteMultiple: 2,
		SerperRatio:       250,
		SettPayRatio:      750,
		Treasury:          "settpay",
		Serper:            "serper",
		Policy:            SettleQuotedDivide,
	}
}

func newTestMarket(t *testing.T, mins map[types.AssetID]types.Balance) (*Market, *recordSink) {
	t.Helper()
	sink := &recordSink{}
	store := balancestore.New(memory.NewDB())
	router := ledger.NewRouter(store, native, mins, sink)
	m, err := NewMarket(testParams(), router)
	require.NoError(t, err)
	return m, sink
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, testParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing native asset", func(p *Params) { p.NativeAsset = "" }},
		{"zero base unit", func(p *Params) { p.BaseUnit = 0 }},
		{"missing treasury", func(p *Params) { p.Treasury = "" }},
		{"treasury is serper", func(p *Params) { p.Treasury = p.Serper }},
		{"ratios under base unit", func(p *Params) { p.SerperRatio = 100 }},
		{"ratios over base unit", func(p *Params) { p.SettPayRatio = 900 }},
		{"missing policy", func(p *Params) { p.Policy = "" }},
		{"unknown policy", func(p *Params) { p.Policy = "market" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestNewMarketNativeMismatch(t *testing.T) {
	store := balancestore.New(memory.NewDB())
	router := ledger.NewRouter(store, "XYZ", nil, nil)
	_, err := NewMarket(testParams(), router)
	assert.Error(t, err)
}

func TestTransferRequiresSigner(t *testing.T) {
	m, _ := newTestMarket(t, nil)
	r := m.Router()
	require.NoError(t, r.Deposit(sett, "alice", 100))
	require.NoError(t, r.Deposit(native, "alice", 100))

	assert.ErrorIs(t, m.Transfer(types.RootOrigin(), sett, "bob", 10), types.ErrUnauthorized)
	assert.ErrorIs(t, m.TransferNative(types.RootOrigin(), "bob", 10), types.ErrUnauthorized)

	require.NoError(t, m.Transfer(types.SignedOrigin("alice"), sett, "bob", 10))
	require.NoError(t, m.TransferNative(types.SignedOrigin("alice"), "bob", 10))

	settBob, err := r.FreeBalance(sett, "bob")
	require.NoError(t, err)
	nativeBob, err := r.FreeBalance(native, "bob")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(10), settBob)
	assert.Equal(t, types.Balance(10), nativeBob)
}

func TestPrivilegedOpsRequireRoot(t *testing.T) {
	m, _ := newTestMarket(t, nil)
	signed := types.SignedOrigin("alice")

	assert.ErrorIs(t, m.UpdateBalance(signed, sett, "alice", 10), types.ErrUnauthorized)
	assert.ErrorIs(t, m.MergeAccounts(signed, "alice", "bob"), types.ErrUnauthorized)
	assert.ErrorIs(t, m.ExpandSupply(signed, sett, 10, 10), types.ErrUnauthorized)
	assert.ErrorIs(t, m.ContractSupply(signed, sett, 10, 10), types.ErrUnauthorized)
}

func TestExpandSupply(t *testing.T) {
	m, sink := newTestMarket(t, nil)
	r := m.Router()

	// A circulating supply and escrowed native collateral backing it.
	require.NoError(t, r.Deposit(sett, "holder", 1_000_000_000))
	require.NoError(t, r.Deposit(native, "serper", 5_000_000))
	require.NoError(t, r.Reserve(native, "serper", 5_000_000))
	sink.events = nil

	require.NoError(t, m.ExpandSupply(types.RootOrigin(), sett, 110_000_000, 89_000))

	issuance, err := r.TotalIssuance(sett)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1_110_000_000), issuance)

	// 75% of the mint lands in the treasury's free balance.
	treasury, err := r.FreeBalance(sett, "settpay")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(82_500_000), treasury)

	// 25% is minted straight into the reserve provider's escrow.
	serperReserved, err := r.ReservedBalance(sett, "serper")
	require.NoError(t, err)
	serperFree, err := r.FreeBalance(sett, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(27_500_000), serperReserved)
	assert.Equal(t, types.Balance(0), serperFree)

	// The provider paid the quoted native settlement from escrow.
	nativeReserved, err := r.ReservedBalance(native, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(3_900_000), nativeReserved)
	nativeIssuance, err := r.TotalIssuance(native)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(3_900_000), nativeIssuance)

	kinds := make([]types.EventKind, 0, len(sink.events))
	for _, ev := range sink.events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []types.EventKind{
		types.EventDeposited,
		types.EventDeposited,
		types.EventSerpedUpSupply,
		types.EventNewPrice,
	}, kinds)
	assert.Equal(t, types.Balance(890), sink.events[3].Amount)
}

func TestExpandSupplyGuards(t *testing.T) {
	m, _ := newTestMarket(t, nil)
	root := types.RootOrigin()

	assert.ErrorIs(t, m.ExpandSupply(root, native, 10, 10), types.ErrCannotSerpNativeAsset)
	assert.ErrorIs(t, m.ExpandSupply(root, sett, 10, 0), types.ErrZeroPrice)

	// Nothing circulates yet, so there is no supply to price against.
	assert.ErrorIs(t, m.ExpandSupply(root, sett, 10, 89_000), types.ErrZeroPrice)
}

func TestContractSupply(t *testing.T) {
	m, sink := newTestMarket(t, nil)
	r := m.Router()

	require.NoError(t, r.Deposit(sett, "holder", 900_000_000))
	require.NoError(t, r.Deposit(sett, "serper", 100_000_000))
	require.NoError(t, r.Reserve(sett, "serper", 100_000_000))
	sink.events = nil

	require.NoError(t, m.ContractSupply(types.RootOrigin(), sett, 100_000_000, 100))

	issuance, err := r.TotalIssuance(sett)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(900_000_000), issuance)

	reserved, err := r.ReservedBalance(sett, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(0), reserved)

	// The quoted native settlement is minted into the provider's escrow.
	nativeReserved, err := r.ReservedBalance(native, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1_100_000), nativeReserved)
	nativeFree, err := r.FreeBalance(native, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(0), nativeFree)

	kinds := make([]types.EventKind, 0, len(sink.events))
	for _, ev := range sink.events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []types.EventKind{
		types.EventDeposited,
		types.EventSerpedDownSupply,
		types.EventNewPrice,
	}, kinds)
	assert.Equal(t, types.Balance(1_100), sink.events[2].Amount)
}

func TestContractSupplyZeroSettlement(t *testing.T) {
	// With the quote far above the serp-quoted price the integer
	// relative price rounds to zero and no native is owed; the burn
	// still happens.
	m, _ := newTestMarket(t, nil)
	r := m.Router()

	require.NoError(t, r.Deposit(sett, "holder", 900_000_000))
	require.NoError(t, r.Deposit(sett, "serper", 100_000_000))
	require.NoError(t, r.Reserve(sett, "serper", 100_000_000))

	require.NoError(t, m.ContractSupply(types.RootOrigin(), sett, 100_000_000, 20_000))

	issuance, err := r.TotalIssuance(sett)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(900_000_000), issuance)

	nativeIssuance, err := r.TotalIssuance(native)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(0), nativeIssuance)
}

func TestContractSupplyGuards(t *testing.T) {
	m, _ := newTestMarket(t, nil)
	r := m.Router()
	root := types.RootOrigin()

	assert.ErrorIs(t, m.ContractSupply(root, native, 10, 10), types.ErrCannotSerpNativeAsset)
	assert.ErrorIs(t, m.ContractSupply(root, sett, 10, 0), types.ErrZeroPrice)

	// The provider's escrow must cover the whole burn.
	require.NoError(t, r.Deposit(sett, "serper", 50))
	require.NoError(t, r.Reserve(sett, "serper", 50))
	assert.ErrorIs(t, m.ContractSupply(root, sett, 51, 100), types.ErrBalanceTooLow)
}

func TestContractSupplyRollsBackOnFailedLeg(t *testing.T) {
	// The native minimum balance rejects the settlement deposit, which
	// must unwind the already-staged burn.
	m, sink := newTestMarket(t, map[types.AssetID]types.Balance{native: 10_000_000})
	r := m.Router()

	require.NoError(t, r.Deposit(sett, "holder", 900_000_000))
	require.NoError(t, r.Deposit(sett, "serper", 100_000_000))
	require.NoError(t, r.Reserve(sett, "serper", 100_000_000))
	sink.events = nil

	err := m.ContractSupply(types.RootOrigin(), sett, 100_000_000, 100)
	assert.ErrorIs(t, err, types.ErrBalanceTooLow)

	issuance, err := r.TotalIssuance(sett)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1_000_000_000), issuance)

	reserved, err := r.ReservedBalance(sett, "serper")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(100_000_000), reserved)

	assert.Empty(t, sink.events)
}

func TestUpdateBalanceAndMerge(t *testing.T) {
	m, _ := newTestMarket(t, nil)
	r := m.Router()
	root := types.RootOrigin()

	require.NoError(t, m.UpdateBalance(root, sett, "alice", 500))
	require.NoError(t, m.UpdateBalance(root, native, "alice", 300))
	require.NoError(t, m.MergeAccounts(root, "alice", "bob"))

	settBob, err := r.FreeBalance(sett, "bob")
	require.NoError(t, err)
	nativeBob, err := r.FreeBalance(native, "bob")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(500), settBob)
	assert.Equal(t, types.Balance(300), nativeBob)

	settAlice, err := r.TotalBalance(sett, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(0), settAlice)
}
