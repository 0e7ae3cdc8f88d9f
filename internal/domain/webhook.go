package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Webhook represents a trader's subscription to an event notification.
type Webhook struct {
	WebhookID string
	Trader    common.Address
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
