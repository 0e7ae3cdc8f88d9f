package handler

import (
	"net/http"

	"github.com/efreitasn/dex/internal/registry"
	"github.com/efreitasn/dex/internal/service"
)

// TokenHandler handles HTTP requests for token endpoints.
type TokenHandler struct {
	tokenSvc *service.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenSvc *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc}
}

// addTokenRequest is the JSON request body for POST /tokens.
type addTokenRequest struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

// tokenResponse is a single registered token.
type tokenResponse struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Quote   bool   `json:"quote"`
}

// tokenListResponse is the JSON response for GET /tokens.
type tokenListResponse struct {
	Tokens []tokenResponse `json:"tokens"`
}

// reserveResponse compares ledger and custody holdings of one token.
type reserveResponse struct {
	Symbol  string `json:"symbol"`
	Ledger  string `json:"ledger"`
	Custody string `json:"custody"`
	Matched bool   `json:"matched"`
}

// reserveListResponse is the JSON response for GET /reserves.
type reserveListResponse struct {
	Reserves []reserveResponse `json:"reserves"`
}

// AddToken handles POST /tokens.
func (h *TokenHandler) AddToken(w http.ResponseWriter, r *http.Request) {
	var req addTokenRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entry, err := h.tokenSvc.AddToken(service.AddTokenRequest{
		Symbol:  req.Symbol,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildTokenResponse(entry))
}

// List handles GET /tokens.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.tokenSvc.List()
	tokens := make([]tokenResponse, len(entries))
	for i, e := range entries {
		tokens[i] = buildTokenResponse(e)
	}
	WriteJSON(w, http.StatusOK, tokenListResponse{Tokens: tokens})
}

// Reserves handles GET /reserves.
func (h *TokenHandler) Reserves(w http.ResponseWriter, r *http.Request) {
	reserves, err := h.tokenSvc.Reserves(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := reserveListResponse{Reserves: make([]reserveResponse, len(reserves))}
	for i := range reserves {
		res := &reserves[i]
		resp.Reserves[i] = reserveResponse{
			Symbol:  res.Symbol.String(),
			Ledger:  res.Ledger.Dec(),
			Custody: res.Custody.Dec(),
			Matched: res.Ledger.Eq(&res.Custody),
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func buildTokenResponse(e registry.Entry) tokenResponse {
	return tokenResponse{
		Symbol:  e.Symbol.String(),
		Address: e.Address.Hex(),
		Quote:   e.Quote,
	}
}
