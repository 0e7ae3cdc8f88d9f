package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/service"
)

// BookHandler handles HTTP requests for order book endpoints.
type BookHandler struct {
	orderSvc *service.OrderService
	tokenSvc *service.TokenService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(orderSvc *service.OrderService, tokenSvc *service.TokenService) *BookHandler {
	return &BookHandler{orderSvc: orderSvc, tokenSvc: tokenSvc}
}

// bookOrdersResponse is the JSON response for GET /books/{symbol}/orders.
type bookOrdersResponse struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Orders []orderResponse `json:"orders"`
}

// depthLevelResponse is a single price level in the depth response.
type depthLevelResponse struct {
	Price       string `json:"price"`
	TotalAmount string `json:"total_amount"`
	OrderCount  int    `json:"order_count"`
}

// depthResponse is the JSON response for GET /books/{symbol}/depth.
type depthResponse struct {
	Symbol     string               `json:"symbol"`
	Bids       []depthLevelResponse `json:"bids"`
	Asks       []depthLevelResponse `json:"asks"`
	Spread     *string              `json:"spread"`
	Crossed    bool                 `json:"crossed"`
	SnapshotAt string               `json:"snapshot_at"`
}

// quoteLevelResponse is a single price level in the quote response.
type quoteLevelResponse struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// quoteResponse is the JSON response for GET /books/{symbol}/quote.
type quoteResponse struct {
	Symbol            string               `json:"symbol"`
	Side              string               `json:"side"`
	AmountRequested   string               `json:"amount_requested"`
	AmountAvailable   string               `json:"amount_available"`
	FullyFillable     bool                 `json:"fully_fillable"`
	EstimatedAvgPrice *string              `json:"estimated_average_price"`
	EstimatedTotal    *string              `json:"estimated_total"`
	PriceLevels       []quoteLevelResponse `json:"price_levels"`
	QuotedAt          string               `json:"quoted_at"`
}

// tradeListResponse is the JSON response for GET /books/{symbol}/trades.
type tradeListResponse struct {
	Symbol string          `json:"symbol"`
	Trades []tradeResponse `json:"trades"`
}

// GetOrders handles GET /books/{symbol}/orders.
func (h *BookHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	sideParam := r.URL.Query().Get("side")
	if sideParam == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "side query parameter is required")
		return
	}
	side, err := domain.ParseSide(sideParam)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	orders, err := h.orderSvc.GetOrders(symbol, side.String())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := bookOrdersResponse{
		Symbol: symbol,
		Side:   side.String(),
		Orders: buildOrderResponses(orders),
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetDepth handles GET /books/{symbol}/depth.
func (h *BookHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	// Parse levels query param (default 10, max 50).
	levels := 10
	if l := r.URL.Query().Get("levels"); l != "" {
		var err error
		levels, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "levels must be a valid integer")
			return
		}
	}

	depth, err := h.tokenSvc.GetDepth(symbol, levels)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bids := make([]depthLevelResponse, len(depth.Bids))
	for i := range depth.Bids {
		bids[i] = depthLevelResponse{
			Price:       depth.Bids[i].Price.Dec(),
			TotalAmount: depth.Bids[i].TotalAmount.Dec(),
			OrderCount:  depth.Bids[i].OrderCount,
		}
	}
	asks := make([]depthLevelResponse, len(depth.Asks))
	for i := range depth.Asks {
		asks[i] = depthLevelResponse{
			Price:       depth.Asks[i].Price.Dec(),
			TotalAmount: depth.Asks[i].TotalAmount.Dec(),
			OrderCount:  depth.Asks[i].OrderCount,
		}
	}

	WriteJSON(w, http.StatusOK, depthResponse{
		Symbol:     depth.Symbol.String(),
		Bids:       bids,
		Asks:       asks,
		Spread:     optionalDec(depth.Spread),
		Crossed:    depth.Crossed,
		SnapshotAt: formatTime(depth.SnapshotAt),
	})
}

// GetQuote handles GET /books/{symbol}/quote.
func (h *BookHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := h.tokenSvc.GetQuote(chi.URLParam(r, "symbol"), q.Get("side"), q.Get("amount"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	priceLevels := make([]quoteLevelResponse, len(quote.PriceLevels))
	for i := range quote.PriceLevels {
		priceLevels[i] = quoteLevelResponse{
			Price:  quote.PriceLevels[i].Price.Dec(),
			Amount: quote.PriceLevels[i].Amount.Dec(),
		}
	}

	WriteJSON(w, http.StatusOK, quoteResponse{
		Symbol:            quote.Symbol.String(),
		Side:              quote.Side.String(),
		AmountRequested:   quote.AmountRequested.Dec(),
		AmountAvailable:   quote.AmountAvailable.Dec(),
		FullyFillable:     quote.FullyFillable,
		EstimatedAvgPrice: optionalDec(quote.EstimatedAvgPrice),
		EstimatedTotal:    optionalDec(quote.EstimatedTotal),
		PriceLevels:       priceLevels,
		QuotedAt:          formatTime(quote.QuotedAt),
	})
}

// GetTrades handles GET /books/{symbol}/trades.
func (h *BookHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	trades, err := h.tokenSvc.GetTrades(symbol, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tradeListResponse{
		Symbol: symbol,
		Trades: buildTradeResponses(trades),
	})
}
