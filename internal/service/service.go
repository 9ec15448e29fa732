package service

import (
	"context"

	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
)

type SessionService interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest, requestingUserID int64) (*entity.Session, error)
	GetSession(ctx context.Context, id int64) (*entity.Session, error)
	GetOpenSessions(ctx context.Context) ([]*entity.Session, error)
}

type BookingService interface {
	// Reserve claims spots on a session via the atomic reservation
	// operation and returns the new booking in reserved status.
	Reserve(ctx context.Context, sessionID, userID int64, guests int) (*entity.Booking, error)

	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error)

	// ExpireStaleReservations releases spots held by reserved bookings
	// whose payment never completed within the reservation window.
	ExpireStaleReservations(ctx context.Context) error
}

type CancellationService interface {
	// Cancel computes the refund owed for a booking, issues it through the
	// gateway, and transitions the booking to cancelled. The refund is
	// issued before the terminal status write so a gateway failure never
	// leaves a cancelled booking with money still captured.
	Cancel(ctx context.Context, bookingID, requestingUserID int64) (*CancellationResult, error)
}

type SplitPaymentService interface {
	// SplitPay fans a session's cost out across participants, reserving a
	// spot and creating a payment intent per participant. Individual
	// participant failures are recorded in the manifest, never propagated
	// as a whole-request failure, and never roll back other participants.
	SplitPay(ctx context.Context, sessionID int64, identifiers []string, organizerUserID int64) (*SplitPayResult, error)

	// CreateIntent sets up payment for a single (non-split) booking.
	CreateIntent(ctx context.Context, bookingID, userID int64) (*IntentResult, error)
}

type WebhookService interface {
	// Process applies one verified gateway event. A nil return means the
	// event was applied or there was nothing to do; a non-nil return means
	// a store or gateway failure the caller should surface as retryable.
	Process(ctx context.Context, event *payments.Event) error
}

type MembershipService interface {
	GetForUser(ctx context.Context, userID int64) (*entity.Membership, error)
}

type UserService interface {
	RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
}

// EventPublisher publishes domain events for the notification consumer.
// A nil publisher disables publishing.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

type CreateSessionRequest struct {
	Title      string `json:"title" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"required,min=1"`
	Spots      int    `json:"spots" binding:"required,min=1"`
	StartsAt   string `json:"starts_at" binding:"required"` // RFC3339
}

type RegisterUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=1,max=255"`
}

type CancellationResult struct {
	RefundAmountCents int64                `json:"refund_amount_cents"`
	RefundPercent     int                  `json:"refund_percent"`
	BookingStatus     entity.BookingStatus `json:"booking_status"`
}

// PlayerResult is one participant's outcome in the split-payment manifest.
// Either the payment fields are set or Error explains what remediation the
// participant needs.
type PlayerResult struct {
	Identifier          string `json:"identifier"`
	PaymentClientSecret string `json:"payment_client_secret,omitempty"`
	OrderID             int64  `json:"order_id,omitempty"`
	BookingID           int64  `json:"booking_id,omitempty"`
	Error               string `json:"error,omitempty"`
}

type SplitPayResult struct {
	SplitGroupID   string         `json:"split_group_id"`
	PerPersonCents int64          `json:"per_person_cents"`
	Results        []PlayerResult `json:"results"`
}

type IntentResult struct {
	OrderID             int64  `json:"order_id"`
	PaymentClientSecret string `json:"payment_client_secret"`
	AmountCents         int64  `json:"amount_cents"`
	DiscountCents       int64  `json:"discount_cents"`
}
