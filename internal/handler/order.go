package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	Type   string  `json:"type"`
	Trader string  `json:"trader"`
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Amount string  `json:"amount"`
	Price  *string `json:"price"`
}

// orderResponse is the JSON representation of an order. Market orders omit
// price.
type orderResponse struct {
	OrderID   uint64  `json:"order_id"`
	Type      string  `json:"type"`
	Trader    string  `json:"trader"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Price     *string `json:"price,omitempty"`
	Amount    string  `json:"amount"`
	Filled    string  `json:"filled"`
	Remaining string  `json:"remaining"`
	CreatedAt string  `json:"created_at"`
}

// tradeResponse is a single trade.
type tradeResponse struct {
	TradeID      string `json:"trade_id"`
	Symbol       string `json:"symbol"`
	MakerOrderID uint64 `json:"maker_order_id"`
	TakerOrderID uint64 `json:"taker_order_id"`
	Maker        string `json:"maker"`
	Taker        string `json:"taker"`
	TakerSide    string `json:"taker_side"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	Cost         string `json:"cost"`
	ExecutedAt   string `json:"executed_at"`
}

// submitOrderResponse is the JSON response for POST /orders. Trades and
// truncated are present for market orders only.
type submitOrderResponse struct {
	orderResponse
	Trades    []tradeResponse `json:"trades,omitempty"`
	Truncated *bool           `json:"truncated,omitempty"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.orderSvc.SubmitOrder(service.SubmitOrderRequest{
		Type:   domain.OrderType(req.Type),
		Trader: req.Trader,
		Symbol: req.Symbol,
		Side:   req.Side,
		Amount: req.Amount,
		Price:  req.Price,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := submitOrderResponse{orderResponse: buildOrderResponse(&res.Order)}
	if res.Order.Type == domain.OrderTypeMarket {
		resp.Trades = buildTradeResponses(res.Trades)
		resp.Truncated = &res.Truncated
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(chi.URLParam(r, "order_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(&order))
}

// buildOrderResponse constructs the response for an order.
func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:   o.ID,
		Type:      string(o.Type),
		Trader:    o.Trader.Hex(),
		Symbol:    o.Symbol.String(),
		Side:      o.Side.String(),
		Amount:    o.Amount.Dec(),
		Filled:    o.Filled.Dec(),
		Remaining: o.Remaining().Dec(),
		CreatedAt: formatTime(o.CreatedAt),
	}
	if o.Type == domain.OrderTypeLimit {
		resp.Price = optionalDec(&o.Price)
	}
	return resp
}

func buildOrderResponses(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, len(orders))
	for i := range orders {
		result[i] = buildOrderResponse(&orders[i])
	}
	return result
}

// buildTradeResponses converts domain trades to response trades.
func buildTradeResponses(trades []domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i := range trades {
		t := &trades[i]
		result[i] = tradeResponse{
			TradeID:      t.TradeID,
			Symbol:       t.Symbol.String(),
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Maker:        t.Maker.Hex(),
			Taker:        t.Taker.Hex(),
			TakerSide:    t.TakerSide.String(),
			Price:        t.Price.Dec(),
			Amount:       t.Amount.Dec(),
			Cost:         t.Cost().Dec(),
			ExecutedAt:   formatTime(t.ExecutedAt),
		}
	}
	return result
}
