package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/serp"
	"github.com/setlabs/serpd/internal/events"
	"github.com/setlabs/serpd/internal/storage/balancestore"
	"github.com/setlabs/serpd/internal/storage/kv/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *serp.Market) {
	t.Helper()

	publisher, err := events.NewPublisher(16, 16)
	require.NoError(t, err)

	store := balancestore.New(memory.NewDB())
	router := ledger.NewRouter(store, "DNAR", nil, publisher)
	market, err := serp.NewMarket(serp.Params{
		NativeAsset:       "DNAR",
		BaseUnit:          1_000,
		SerpQuoteMultiple: 2,
		SerperRatio:       250,
		SettPayRatio:      750,
		Treasury:          "settpay",
		Serper:            "serper",
		Policy:            serp.SettleQuotedDivide,
	}, router)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(NewHandler(market, publisher), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, market
}

type rpcResponse struct {
	JsonRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ID interface{} `json:"id"`
}

func call(t *testing.T, srv *httptest.Server, method string, params interface{}) rpcResponse {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRPCTransferAndQueries(t *testing.T) {
	srv, market := newTestServer(t)
	require.NoError(t, market.Router().Deposit("SETT", "alice", 1_000))

	resp := call(t, srv, "transfer", map[string]interface{}{
		"signer": "alice",
		"asset":  "SETT",
		"dest":   "bob",
		"amount": 400,
	})
	require.Nil(t, resp.Error)

	resp = call(t, srv, "free_balance", map[string]interface{}{
		"asset": "SETT",
		"who":   "bob",
	})
	require.Nil(t, resp.Error)

	var bal struct {
		Asset   string `json:"asset"`
		Who     string `json:"who"`
		Balance uint64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &bal))
	assert.Equal(t, uint64(400), bal.Balance)

	resp = call(t, srv, "total_issuance", map[string]interface{}{"asset": "SETT"})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &bal))
	assert.Equal(t, uint64(1_000), bal.Balance)
}

func TestRPCSupplyOperations(t *testing.T) {
	srv, market := newTestServer(t)
	r := market.Router()
	require.NoError(t, r.Deposit("SETT", "holder", 1_000_000_000))
	require.NoError(t, r.Deposit("DNAR", "serper", 5_000_000))
	require.NoError(t, r.Reserve("DNAR", "serper", 5_000_000))

	resp := call(t, srv, "expand_supply", map[string]interface{}{
		"root":        true,
		"asset":       "SETT",
		"expand_by":   110_000_000,
		"quote_price": 89_000,
	})
	require.Nil(t, resp.Error)

	issuance, err := r.TotalIssuance("SETT")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_110_000_000), issuance)

	resp = call(t, srv, "contract_supply", map[string]interface{}{
		"root":        true,
		"asset":       "SETT",
		"contract_by": 27_500_000,
		"quote_price": 89_000,
	})
	require.Nil(t, resp.Error)

	issuance, err = r.TotalIssuance("SETT")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_082_500_000), issuance)

	resp = call(t, srv, "recent_events", map[string]interface{}{"asset": "SETT"})
	require.Nil(t, resp.Error)
	var evs []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Result, &evs))
	assert.NotEmpty(t, evs)
}

func TestRPCAuthErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	// Supply operations without root privilege fail.
	resp := call(t, srv, "expand_supply", map[string]interface{}{
		"signer":      "alice",
		"asset":       "SETT",
		"expand_by":   10,
		"quote_price": 10,
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "unauthorized")

	// Transfers without a signer fail.
	resp = call(t, srv, "transfer", map[string]interface{}{
		"asset":  "SETT",
		"dest":   "bob",
		"amount": 10,
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "unauthorized")
}

func TestRPCUnknownMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := call(t, srv, "mint_everything", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "not found")
}

func TestRPCRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRPCMissingParams(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := call(t, srv, "free_balance", nil)
	require.NotNil(t, resp.Error)
}
