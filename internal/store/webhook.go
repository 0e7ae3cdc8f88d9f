package store

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary index: trader → event → webhook.
type WebhookStore struct {
	mu       sync.RWMutex
	webhooks map[string]*domain.Webhook
	byTrader map[common.Address]map[string]*domain.Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks: make(map[string]*domain.Webhook),
		byTrader: make(map[common.Address]map[string]*domain.Webhook),
	}
}

// Upsert inserts or updates a subscription keyed by (trader, event). An
// existing subscription keeps its webhook_id and only gets the new URL and
// UpdatedAt. It returns the stored webhook and true if it was newly created.
func (s *WebhookStore) Upsert(w *domain.Webhook) (domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byTrader[w.Trader][w.Event]; ok {
		if existing.URL != w.URL {
			existing.URL = w.URL
			existing.UpdatedAt = w.UpdatedAt
		}
		return *existing, false
	}

	s.webhooks[w.WebhookID] = w
	if s.byTrader[w.Trader] == nil {
		s.byTrader[w.Trader] = make(map[string]*domain.Webhook)
	}
	s.byTrader[w.Trader][w.Event] = w

	return *w, true
}

// Get retrieves a webhook by ID. It returns domain.ErrWebhookNotFound if
// the webhook does not exist.
func (s *WebhookStore) Get(id string) (domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.Webhook{}, domain.ErrWebhookNotFound
	}
	return *w, nil
}

// ListByTrader returns a trader's webhooks sorted by event name.
func (s *WebhookStore) ListByTrader(trader common.Address) []domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byTrader[trader]
	result := make([]domain.Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Event < result[j].Event })
	return result
}

// Delete removes a webhook by ID from both indexes. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.webhooks, id)

	if events, ok := s.byTrader[w.Trader]; ok {
		delete(events, w.Event)
		if len(events) == 0 {
			delete(s.byTrader, w.Trader)
		}
	}
	return nil
}

// Lookup returns the subscription for a trader+event pair.
func (s *WebhookStore) Lookup(trader common.Address, event string) (domain.Webhook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byTrader[trader][event]
	if !ok {
		return domain.Webhook{}, false
	}
	return *w, true
}
