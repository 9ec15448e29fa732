package repository

import (
	"context"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id int64) (*entity.Session, error)
	GetOpen(ctx context.Context) ([]*entity.Session, error)
	UpdateStatus(ctx context.Context, id int64, status entity.SessionStatus) error

	// ReleaseSpots returns previously reserved spots to the session and
	// reopens it if it was marked full.
	ReleaseSpots(ctx context.Context, sessionID int64, spots int) error
}

type BookingRepository interface {
	// ReserveSpot atomically decrements the session's remaining spots and
	// inserts a reserved booking. Fails with ErrNotEnoughSpots when the
	// conditional decrement matches no row.
	ReserveSpot(ctx context.Context, sessionID, userID int64, guests int) (*entity.Booking, error)

	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error)

	// Confirm sets status to confirmed with confirmed_at, guarded so only a
	// reserved booking transitions.
	Confirm(ctx context.Context, id int64, at time.Time) error

	// CancelIfNotCancelled is a compare-and-set: it transitions the booking
	// to cancelled only when it is not already cancelled, and reports
	// ErrAlreadyCancelled otherwise.
	CancelIfNotCancelled(ctx context.Context, id int64, at time.Time) error

	// GetStale returns reserved bookings older than the cutoff with no paid
	// or pending order attached.
	GetStale(ctx context.Context, before time.Time) ([]*entity.StaleBooking, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	GetPaidByBookingID(ctx context.Context, bookingID int64) (*entity.Order, error)
	GetPendingByBookingID(ctx context.Context, bookingID int64) (*entity.Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Order, error)
	GetBySplitGroupID(ctx context.Context, splitGroupID string) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus) error
}

type MembershipRepository interface {
	// CreateIfAbsent inserts the membership unless a row for its external
	// subscription id already exists. Returns true when a row was inserted.
	CreateIfAbsent(ctx context.Context, m *entity.Membership) (bool, error)

	GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*entity.Membership, error)
	GetByUserID(ctx context.Context, userID int64) (*entity.Membership, error)
	UpdateStatusAndPeriod(ctx context.Context, subscriptionID string, status entity.MembershipStatus, periodStart, periodEnd time.Time) error
	UpdateStatus(ctx context.Context, subscriptionID string, status entity.MembershipStatus) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID int64, customerID string) error
}

type WebhookEventRepository interface {
	// RecordIfNew inserts the event id into the ledger and reports whether
	// the insert happened; false means the event was already processed.
	RecordIfNew(ctx context.Context, event *entity.WebhookEvent) (bool, error)

	// Delete un-records an event whose processing failed, so the gateway's
	// redelivery is not treated as a duplicate.
	Delete(ctx context.Context, eventID string) error
}
