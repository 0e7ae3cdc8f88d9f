package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/metrics"
	"github.com/efreitasn/dex/internal/store"
)

// Webhook event types.
const (
	EventTradeExecuted = "trade.executed"
	EventOrderFilled   = "order.filled"
)

var validWebhookEvents = map[string]bool{
	EventTradeExecuted: true,
	EventOrderFilled:   true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Trader string
	URL    string
	Events []string
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store   *store.WebhookStore
	client  *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	webhookTimeout time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// Upsert validates the request and creates or updates one subscription per
// event. It returns the resulting webhooks and whether any was new.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]domain.Webhook, bool, error) {
	trader, err := parseTrader(req.Trader)
	if err != nil {
		return nil, false, err
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}
	seen := make(map[string]bool, len(req.Events))
	events := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: trade.executed, order.filled",
			}
		}
		if !seen[event] {
			seen[event] = true
			events = append(events, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]domain.Webhook, 0, len(events))
	for _, event := range events {
		stored, created := s.store.Upsert(&domain.Webhook{
			WebhookID: uuid.New().String(),
			Trader:    trader,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		anyCreated = anyCreated || created
		webhooks = append(webhooks, stored)
	}
	return webhooks, anyCreated, nil
}

// List returns a trader's webhook subscriptions.
func (s *WebhookService) List(traderHex string) ([]domain.Webhook, error) {
	trader, err := parseTrader(traderHex)
	if err != nil {
		return nil, err
	}
	return s.store.ListByTrader(trader), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// tradePayload is the JSON payload for trade.executed webhooks.
type tradePayload struct {
	Event     string    `json:"event"`
	Timestamp string    `json:"timestamp"`
	Data      tradeData `json:"data"`
}

type tradeData struct {
	TradeID      string `json:"trade_id"`
	Trader       string `json:"trader"`
	Role         string `json:"role"` // maker or taker
	OrderID      uint64 `json:"order_id"`
	MakerOrderID uint64 `json:"maker_order_id"`
	TakerOrderID uint64 `json:"taker_order_id"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"` // the notified trader's side
	Price        string `json:"price"`
	Amount       string `json:"amount"`
}

// orderFilledPayload is the JSON payload for order.filled webhooks.
type orderFilledPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      orderFilledData `json:"data"`
}

type orderFilledData struct {
	Trader  string `json:"trader"`
	OrderID uint64 `json:"order_id"`
	Symbol  string `json:"symbol"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Amount  string `json:"amount"`
}

// DispatchMarketResult notifies the taker and every maker of each trade,
// and the owners of completely filled orders. Delivery is asynchronous.
func (s *WebhookService) DispatchMarketResult(res *engine.MarketResult) {
	for i := range res.Trades {
		t := &res.Trades[i]
		s.dispatchTrade(t.Taker, "taker", t.TakerOrderID, t.TakerSide, t)
		s.dispatchTrade(t.Maker, "maker", t.MakerOrderID, t.TakerSide.Opposite(), t)
	}
	for i := range res.Completed {
		o := &res.Completed[i]
		wh, ok := s.store.Lookup(o.Trader, EventOrderFilled)
		if !ok {
			continue
		}
		s.send(wh, orderFilledPayload{
			Event:     EventOrderFilled,
			Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
			Data: orderFilledData{
				Trader:  o.Trader.Hex(),
				OrderID: o.ID,
				Symbol:  o.Symbol.String(),
				Side:    o.Side.String(),
				Price:   o.Price.Dec(),
				Amount:  o.Amount.Dec(),
			},
		})
	}
}

func (s *WebhookService) dispatchTrade(trader common.Address, role string, orderID uint64, side domain.Side, t *domain.Trade) {
	wh, ok := s.store.Lookup(trader, EventTradeExecuted)
	if !ok {
		return
	}
	s.send(wh, tradePayload{
		Event:     EventTradeExecuted,
		Timestamp: t.ExecutedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: tradeData{
			TradeID:      t.TradeID,
			Trader:       trader.Hex(),
			Role:         role,
			OrderID:      orderID,
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Symbol:       t.Symbol.String(),
			Side:         side.String(),
			Price:        t.Price.Dec(),
			Amount:       t.Amount.Dec(),
		},
	})
}

func (s *WebhookService) send(wh domain.Webhook, payload any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ok := s.deliver(context.Background(), wh, payload)
		s.metrics.WebhookDelivered(wh.Event, ok)
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (s *WebhookService) Wait() {
	s.wg.Wait()
}

// deliver POSTs the payload and reports whether the receiver accepted it.
func (s *WebhookService) deliver(ctx context.Context, wh domain.Webhook, payload any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", wh.Event)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("event", wh.Event),
			slog.String("error", err.Error()),
		)
		return false
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("webhook rejected",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("event", wh.Event),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}
	return true
}
