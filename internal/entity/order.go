package entity

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusFailed   OrderStatus = "failed"
)

type Order struct {
	ID                    int64       `json:"id" db:"id"`
	BookingID             int64       `json:"booking_id" db:"booking_id"`
	UserID                int64       `json:"user_id" db:"user_id"`
	AmountCents           int64       `json:"amount_cents" db:"amount_cents"`
	DiscountCents         int64       `json:"discount_cents" db:"discount_cents"`
	StripePaymentIntentID string      `json:"stripe_payment_intent_id,omitempty" db:"stripe_payment_intent_id"`
	Status                OrderStatus `json:"status" db:"status"`
	IsSplit               bool        `json:"is_split" db:"is_split"`
	SplitGroupID          string      `json:"split_group_id,omitempty" db:"split_group_id"`
	CreatedAt             time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at" db:"updated_at"`
}
