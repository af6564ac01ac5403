package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/setlabs/serpd/internal/core/serp"
	"github.com/setlabs/serpd/internal/core/types"
	"github.com/setlabs/serpd/internal/events"
)

// Handler dispatches JSON-RPC methods onto the market. Authentication
// happens upstream; the request's origin fields are trusted as already
// verified by the caller.
type Handler struct {
	market    *serp.Market
	publisher *events.Publisher

	methods map[string]func(json.RawMessage) (interface{}, error)
}

// NewHandler initializes a handler over a market. publisher may be nil
// if recent-event retention is not wired.
func NewHandler(market *serp.Market, publisher *events.Publisher) *Handler {
	h := &Handler{market: market, publisher: publisher}

	h.methods = map[string]func(json.RawMessage) (interface{}, error){
		"transfer":         h.handleTransfer,
		"transfer_native":  h.handleTransferNative,
		"update_balance":   h.handleUpdateBalance,
		"expand_supply":    h.handleExpandSupply,
		"contract_supply":  h.handleContractSupply,
		"merge_accounts":   h.handleMergeAccounts,
		"free_balance":     h.handleFreeBalance,
		"reserved_balance": h.handleReservedBalance,
		"total_balance":    h.handleTotalBalance,
		"total_issuance":   h.handleTotalIssuance,
		"minimum_balance":  h.handleMinimumBalance,
		"recent_events":    h.handleRecentEvents,
	}

	return h
}

// Handle dispatches a JSON-RPC method to the appropriate handler.
func (h *Handler) Handle(method string, params json.RawMessage) (interface{}, error) {
	handler, exists := h.methods[method]
	if !exists {
		return nil, fmt.Errorf("method %s not found", method)
	}
	return handler(params)
}

// originParams is embedded in requests that carry a calling identity.
type originParams struct {
	Root   bool   `json:"root,omitempty"`
	Signer string `json:"signer,omitempty"`
}

func (o originParams) origin() types.Origin {
	if o.Root {
		return types.RootOrigin()
	}
	return types.SignedOrigin(types.AccountID(o.Signer))
}

func decodeParams(params json.RawMessage, into interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(params, into); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

type statusResult struct {
	Status string `json:"status"`
}

var okResult = statusResult{Status: "success"}

func (h *Handler) handleTransfer(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Asset  string `json:"asset"`
		Dest   string `json:"dest"`
		Amount uint64 `json:"amount"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.Transfer(req.origin(), types.AssetID(req.Asset), types.AccountID(req.Dest), req.Amount); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) handleTransferNative(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Dest   string `json:"dest"`
		Amount uint64 `json:"amount"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.TransferNative(req.origin(), types.AccountID(req.Dest), req.Amount); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) handleUpdateBalance(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Asset  string `json:"asset"`
		Who    string `json:"who"`
		Amount int64  `json:"amount"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.UpdateBalance(req.origin(), types.AssetID(req.Asset), types.AccountID(req.Who), req.Amount); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) handleExpandSupply(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Asset      string `json:"asset"`
		ExpandBy   uint64 `json:"expand_by"`
		QuotePrice uint64 `json:"quote_price"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.ExpandSupply(req.origin(), types.AssetID(req.Asset), req.ExpandBy, req.QuotePrice); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) handleContractSupply(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Asset      string `json:"asset"`
		ContractBy uint64 `json:"contract_by"`
		QuotePrice uint64 `json:"quote_price"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.ContractSupply(req.origin(), types.AssetID(req.Asset), req.ContractBy, req.QuotePrice); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) handleMergeAccounts(params json.RawMessage) (interface{}, error) {
	var req struct {
		originParams
		Source string `json:"source"`
		Dest   string `json:"dest"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := h.market.MergeAccounts(req.origin(), types.AccountID(req.Source), types.AccountID(req.Dest)); err != nil {
		return nil, err
	}
	return okResult, nil
}

type balanceQuery struct {
	Asset string `json:"asset"`
	Who   string `json:"who"`
}

type balanceResult struct {
	Asset   string `json:"asset"`
	Who     string `json:"who,omitempty"`
	Balance uint64 `json:"balance"`
}

func (h *Handler) handleFreeBalance(params json.RawMessage) (interface{}, error) {
	var req balanceQuery
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	bal, err := h.market.Router().FreeBalance(types.AssetID(req.Asset), types.AccountID(req.Who))
	if err != nil {
		return nil, err
	}
	return balanceResult{Asset: req.Asset, Who: req.Who, Balance: bal}, nil
}

func (h *Handler) handleReservedBalance(params json.RawMessage) (interface{}, error) {
	var req balanceQuery
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	bal, err := h.market.Router().ReservedBalance(types.AssetID(req.Asset), types.AccountID(req.Who))
	if err != nil {
		return nil, err
	}
	return balanceResult{Asset: req.Asset, Who: req.Who, Balance: bal}, nil
}

func (h *Handler) handleTotalBalance(params json.RawMessage) (interface{}, error) {
	var req balanceQuery
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	bal, err := h.market.Router().TotalBalance(types.AssetID(req.Asset), types.AccountID(req.Who))
	if err != nil {
		return nil, err
	}
	return balanceResult{Asset: req.Asset, Who: req.Who, Balance: bal}, nil
}

func (h *Handler) handleTotalIssuance(params json.RawMessage) (interface{}, error) {
	var req struct {
		Asset string `json:"asset"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	issuance, err := h.market.Router().TotalIssuance(types.AssetID(req.Asset))
	if err != nil {
		return nil, err
	}
	return balanceResult{Asset: req.Asset, Balance: issuance}, nil
}

func (h *Handler) handleMinimumBalance(params json.RawMessage) (interface{}, error) {
	var req struct {
		Asset string `json:"asset"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return balanceResult{Asset: req.Asset, Balance: h.market.Router().MinimumBalance(types.AssetID(req.Asset))}, nil
}

func (h *Handler) handleRecentEvents(params json.RawMessage) (interface{}, error) {
	if h.publisher == nil {
		return nil, fmt.Errorf("event retention is not enabled")
	}
	var req struct {
		Asset string `json:"asset"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return h.publisher.Recent(types.AssetID(req.Asset)), nil
}
