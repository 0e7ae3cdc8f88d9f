package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/metrics"
)

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	Type   domain.OrderType
	Trader string
	Symbol string
	Side   string
	Amount string
	Price  *string // required for limit, must be nil for market
}

// SubmitOrderResult is the outcome of a submitted order. Trades and
// Truncated are only set for market orders.
type SubmitOrderResult struct {
	Order     domain.Order
	Trades    []domain.Trade
	Truncated bool
}

// orderEntry is the journal record of an accepted order.
type orderEntry struct {
	OrderID   uint64   `json:"order_id"`
	Type      string   `json:"type"`
	Trader    string   `json:"trader"`
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"`
	Amount    string   `json:"amount"`
	Price     string   `json:"price,omitempty"`
	Filled    string   `json:"filled"`
	TradeIDs  []string `json:"trade_ids,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}

// OrderService handles order submission, retrieval and listing.
type OrderService struct {
	exchange   *engine.Exchange
	webhookSvc *WebhookService
	metrics    *metrics.Metrics
	recorder   recorder
	logger     *slog.Logger
}

// NewOrderService creates a new OrderService. webhookSvc and journal may
// be nil.
func NewOrderService(
	ex *engine.Exchange,
	webhookSvc *WebhookService,
	m *metrics.Metrics,
	journal Journal,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		exchange:   ex,
		webhookSvc: webhookSvc,
		metrics:    m,
		recorder:   recorder{journal: journal, logger: logger},
		logger:     logger,
	}
}

// parseDecimal parses a decimal string field, naming the field in the
// validation message.
func parseDecimal(field, s string) (*uint256.Int, error) {
	v, err := domain.ParseAmount(s)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, &domain.ValidationError{
				Message: field + " must be a non-negative base-10 integer",
			}
		}
		return nil, err
	}
	return v, nil
}

// SubmitOrder validates the request and places a limit or market order.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (*SubmitOrderResult, error) {
	op := "order_" + string(req.Type)
	res, err := s.submit(req)
	if err != nil {
		s.metrics.Rejected(op, domain.Code(err))
		s.logger.Info("order rejected",
			slog.String("type", string(req.Type)),
			slog.String("trader", req.Trader),
			slog.String("symbol", req.Symbol),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	s.metrics.Succeeded(op)
	return res, nil
}

func (s *OrderService) submit(req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if req.Type != domain.OrderTypeLimit && req.Type != domain.OrderTypeMarket {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: limit, market", req.Type),
		}
	}

	trader, err := parseTrader(req.Trader)
	if err != nil {
		return nil, err
	}
	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	if req.Type == domain.OrderTypeMarket {
		if req.Price != nil {
			return nil, &domain.ValidationError{
				Message: "market orders must not include price",
			}
		}
		res, err := s.exchange.CreateMarketOrder(trader, symbol, side, amount)
		if err != nil {
			return nil, err
		}
		s.afterMarket(res)
		return &SubmitOrderResult{
			Order:     res.Order,
			Trades:    res.Trades,
			Truncated: res.Truncated,
		}, nil
	}

	if req.Price == nil {
		return nil, &domain.ValidationError{
			Message: "price is required for limit orders",
		}
	}
	price, err := parseDecimal("price", *req.Price)
	if err != nil {
		return nil, err
	}
	order, err := s.exchange.CreateLimitOrder(trader, symbol, side, amount, price)
	if err != nil {
		return nil, err
	}

	s.metrics.SetResting(symbol.String(), side.String(), s.exchange.Resting(symbol, side))
	s.recorder.record("order_limit", orderEntry{
		OrderID: order.ID,
		Type:    string(order.Type),
		Trader:  order.Trader.Hex(),
		Symbol:  order.Symbol.String(),
		Side:    order.Side.String(),
		Amount:  order.Amount.Dec(),
		Price:   order.Price.Dec(),
		Filled:  order.Filled.Dec(),
	})
	s.logger.Debug("limit order placed",
		slog.Uint64("order_id", order.ID),
		slog.String("symbol", symbol.String()),
		slog.String("side", side.String()),
	)
	return &SubmitOrderResult{Order: order}, nil
}

// afterMarket publishes the side effects of a committed market order.
func (s *OrderService) afterMarket(res *engine.MarketResult) {
	o := &res.Order
	maker := o.Side.Opposite()

	s.metrics.MarketOrder(o.Symbol.String(), len(res.Trades), res.Truncated)
	s.metrics.SetResting(o.Symbol.String(), maker.String(), s.exchange.Resting(o.Symbol, maker))

	tradeIDs := make([]string, len(res.Trades))
	for i := range res.Trades {
		tradeIDs[i] = res.Trades[i].TradeID
	}
	s.recorder.record("order_market", orderEntry{
		OrderID:   o.ID,
		Type:      string(o.Type),
		Trader:    o.Trader.Hex(),
		Symbol:    o.Symbol.String(),
		Side:      o.Side.String(),
		Amount:    o.Amount.Dec(),
		Filled:    o.Filled.Dec(),
		TradeIDs:  tradeIDs,
		Truncated: res.Truncated,
	})
	if res.Truncated {
		s.logger.Warn("market order stopped at step limit",
			slog.Uint64("order_id", o.ID),
			slog.String("symbol", o.Symbol.String()),
			slog.Int("fills", len(res.Trades)),
		)
	}
	s.logger.Debug("market order executed",
		slog.Uint64("order_id", o.ID),
		slog.String("symbol", o.Symbol.String()),
		slog.String("filled", o.Filled.Dec()),
	)

	if s.webhookSvc != nil {
		s.webhookSvc.DispatchMarketResult(res)
	}
}

// GetOrder retrieves an order by its decimal ID.
func (s *OrderService) GetOrder(orderID string) (domain.Order, error) {
	id, err := strconv.ParseUint(orderID, 10, 64)
	if err != nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return s.exchange.Order(id)
}

// ListOrders returns a paginated list of a trader's orders, newest first,
// optionally restricted to one symbol.
func (s *OrderService) ListOrders(traderHex string, symbolStr *string, page, limit int) ([]domain.Order, int, error) {
	trader, err := parseTrader(traderHex)
	if err != nil {
		return nil, 0, err
	}

	var symbol *domain.Symbol
	if symbolStr != nil {
		sym, err := domain.ParseSymbol(*symbolStr)
		if err != nil {
			return nil, 0, err
		}
		symbol = &sym
	}

	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	orders, total := s.exchange.TraderOrders(trader, symbol, page, limit)
	return orders, total, nil
}

// GetOrders returns the resting orders on one side of a book in priority
// order.
func (s *OrderService) GetOrders(symbolStr, sideStr string) ([]domain.Order, error) {
	symbol, err := domain.ParseSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	side, err := domain.ParseSide(sideStr)
	if err != nil {
		return nil, err
	}
	return s.exchange.Orders(symbol, side), nil
}
