package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/dex/internal/service"
)

// TraderHandler handles HTTP requests for trader endpoints.
type TraderHandler struct {
	traderSvc *service.TraderService
	orderSvc  *service.OrderService
}

// NewTraderHandler creates a new TraderHandler.
func NewTraderHandler(traderSvc *service.TraderService, orderSvc *service.OrderService) *TraderHandler {
	return &TraderHandler{
		traderSvc: traderSvc,
		orderSvc:  orderSvc,
	}
}

// transferRequest is the JSON request body for POST /deposits and
// POST /withdrawals.
type transferRequest struct {
	Trader string `json:"trader"`
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

// balanceResponse is the JSON response for balance queries and transfers.
type balanceResponse struct {
	Trader    string `json:"trader"`
	Symbol    string `json:"symbol"`
	Balance   string `json:"balance"`
	Locked    string `json:"locked"`
	Available string `json:"available"`
}

// orderListResponse is the JSON response for GET /traders/{trader}/orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Total  int             `json:"total"`
}

// Deposit handles POST /deposits.
func (h *TraderHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.traderSvc.Deposit)
}

// Withdraw handles POST /withdrawals.
func (h *TraderHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.traderSvc.Withdraw)
}

func (h *TraderHandler) transfer(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, req service.TransferRequest) (*service.BalanceResponse, error),
) {
	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	bal, err := fn(r.Context(), service.TransferRequest{
		Trader: req.Trader,
		Symbol: req.Symbol,
		Amount: req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(bal))
}

// GetBalance handles GET /traders/{trader}/balances/{symbol}.
func (h *TraderHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.traderSvc.GetBalance(chi.URLParam(r, "trader"), chi.URLParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(bal))
}

// ListOrders handles GET /traders/{trader}/orders.
func (h *TraderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	trader := chi.URLParam(r, "trader")

	var symbol *string
	if s := r.URL.Query().Get("symbol"); s != "" {
		symbol = &s
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	orders, total, err := h.orderSvc.ListOrders(trader, symbol, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orderListResponse{
		Orders: buildOrderResponses(orders),
		Page:   page,
		Limit:  limit,
		Total:  total,
	})
}

func buildBalanceResponse(b *service.BalanceResponse) balanceResponse {
	return balanceResponse{
		Trader:    b.Trader.Hex(),
		Symbol:    b.Symbol.String(),
		Balance:   b.Balance.Dec(),
		Locked:    b.Locked.Dec(),
		Available: b.Available.Dec(),
	}
}
