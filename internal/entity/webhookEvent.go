package entity

import (
	"time"
)

// WebhookEvent is one row in the gateway-event ledger. Inserting the event
// ID before processing makes duplicate deliveries of the same event a no-op.
type WebhookEvent struct {
	EventID    string    `json:"event_id" db:"event_id"`
	EventType  string    `json:"event_type" db:"event_type"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}
