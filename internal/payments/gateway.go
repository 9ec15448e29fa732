package payments

import (
	"context"
	"encoding/json"
	"time"
)

// Customer, intent, refund and subscription calls the booking core needs
// from the payment gateway. Injected everywhere so tests can substitute a
// fake; nothing in the services talks to Stripe directly.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) error
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// VerifyWebhook checks the gateway signature over the raw body and
	// returns the decoded event.
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}

type CreateIntentInput struct {
	AmountCents int64
	Currency    string
	CustomerID  string
	Metadata    map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	Metadata           map[string]string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// Event is a verified gateway webhook event. Object holds the raw JSON of
// the event's payload object (payment intent, subscription or invoice).
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// Event payload shapes the reconciliation router decodes out of
// Event.Object. Field names follow the gateway's wire format.
type PaymentIntentPayload struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type SubscriptionPayload struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Metadata           map[string]string `json:"metadata"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
}

type InvoicePayload struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}
