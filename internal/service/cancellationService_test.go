package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type cancellationFixture struct {
	svc         *cancellationService
	sessionRepo *fakeSessionRepo
	bookingRepo *fakeBookingRepo
	orderRepo   *fakeOrderRepo
	userRepo    *fakeUserRepo
	gateway     *fakeGateway
	publisher   *fakePublisher
	now         time.Time
}

func newCancellationFixture(t *testing.T) *cancellationFixture {
	t.Helper()

	sessionRepo := newFakeSessionRepo()
	bookingRepo := newFakeBookingRepo(sessionRepo)
	orderRepo := newFakeOrderRepo()
	userRepo := newFakeUserRepo()
	gateway := newFakeGateway()
	publisher := &fakePublisher{}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewCancellationService(
		bookingRepo, sessionRepo, orderRepo, userRepo, gateway, nil, publisher, logger,
	).(*cancellationService)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &cancellationFixture{
		svc:         svc,
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		publisher:   publisher,
		now:         now,
	}
}

// seedPaidBooking creates a user, a session starting hoursAhead from the
// fixture clock, a confirmed booking and a paid order over amountCents.
func (f *cancellationFixture) seedPaidBooking(t *testing.T, hoursAhead float64, amountCents int64) (*entity.User, *entity.Booking, *entity.Order) {
	t.Helper()

	user := f.userRepo.addUser("player@example.com", entity.RoleMember)

	session := &entity.Session{
		Title:          "evening fives",
		PriceCents:     amountCents,
		SpotsRemaining: 10,
		Status:         entity.SessionStatusOpen,
		StartsAt:       f.now.Add(time.Duration(hoursAhead * float64(time.Hour))),
	}
	require.NoError(t, f.sessionRepo.Create(context.Background(), session))

	booking, err := f.bookingRepo.ReserveSpot(context.Background(), session.ID, user.ID, 0)
	require.NoError(t, err)
	require.NoError(t, f.bookingRepo.Confirm(context.Background(), booking.ID, f.now))

	order := &entity.Order{
		BookingID:             booking.ID,
		UserID:                user.ID,
		AmountCents:           amountCents,
		StripePaymentIntentID: "pi_seeded",
		Status:                entity.OrderStatusPaid,
	}
	require.NoError(t, f.orderRepo.Create(context.Background(), order))

	return user, booking, order
}

func TestCancelRefundBands(t *testing.T) {
	tests := []struct {
		name            string
		hoursAhead      float64
		amountCents     int64
		wantRefund      int64
		wantPercent     int
		wantOrderStatus entity.OrderStatus
	}{
		{
			name:            "more than a day out refunds fully and retires the order",
			hoursAhead:      49,
			amountCents:     5000,
			wantRefund:      5000,
			wantPercent:     100,
			wantOrderStatus: entity.OrderStatusRefunded,
		},
		{
			name:            "half refund leaves the order paid",
			hoursAhead:      14,
			amountCents:     5000,
			wantRefund:      2500,
			wantPercent:     50,
			wantOrderStatus: entity.OrderStatusPaid,
		},
		{
			name:            "last minute cancellation refunds nothing",
			hoursAhead:      6,
			amountCents:     5000,
			wantRefund:      0,
			wantPercent:     0,
			wantOrderStatus: entity.OrderStatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCancellationFixture(t)
			user, booking, order := f.seedPaidBooking(t, tt.hoursAhead, tt.amountCents)

			result, err := f.svc.Cancel(context.Background(), booking.ID, user.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRefund, result.RefundAmountCents)
			assert.Equal(t, tt.wantPercent, result.RefundPercent)
			assert.Equal(t, entity.BookingStatusCancelled, result.BookingStatus)

			got, err := f.bookingRepo.GetByID(context.Background(), booking.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.BookingStatusCancelled, got.Status)

			gotOrder, err := f.orderRepo.GetByID(context.Background(), order.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrderStatus, gotOrder.Status)

			if tt.wantRefund > 0 {
				require.Len(t, f.gateway.refunds, 1)
				assert.Equal(t, tt.wantRefund, f.gateway.refunds[0].amountCents)
				assert.Equal(t, order.StripePaymentIntentID, f.gateway.refunds[0].paymentIntentID)
			} else {
				assert.Empty(t, f.gateway.refunds)
			}
		})
	}
}

func TestCancelWithoutOrder(t *testing.T) {
	f := newCancellationFixture(t)

	user := f.userRepo.addUser("player@example.com", entity.RoleMember)
	session := &entity.Session{
		SpotsRemaining: 4,
		Status:         entity.SessionStatusOpen,
		StartsAt:       f.now.Add(48 * time.Hour),
	}
	require.NoError(t, f.sessionRepo.Create(context.Background(), session))

	booking, err := f.bookingRepo.ReserveSpot(context.Background(), session.ID, user.ID, 0)
	require.NoError(t, err)

	result, err := f.svc.Cancel(context.Background(), booking.ID, user.ID)
	require.NoError(t, err)

	assert.Zero(t, result.RefundAmountCents)
	assert.Zero(t, result.RefundPercent)
	assert.Empty(t, f.gateway.refunds)
}

func TestCancelReleasesSpots(t *testing.T) {
	f := newCancellationFixture(t)
	user, booking, _ := f.seedPaidBooking(t, 49, 5000)

	before, err := f.sessionRepo.GetByID(context.Background(), booking.SessionID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), booking.ID, user.ID)
	require.NoError(t, err)

	after, err := f.sessionRepo.GetByID(context.Background(), booking.SessionID)
	require.NoError(t, err)
	assert.Equal(t, before.SpotsRemaining+1, after.SpotsRemaining)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	f := newCancellationFixture(t)
	user, booking, _ := f.seedPaidBooking(t, 49, 5000)

	_, err := f.svc.Cancel(context.Background(), booking.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, f.gateway.refunds, 1)

	// A second cancellation must not issue another refund.
	_, err = f.svc.Cancel(context.Background(), booking.ID, user.ID)
	assert.ErrorIs(t, err, entity.ErrAlreadyCancelled)
	assert.Len(t, f.gateway.refunds, 1)
}

func TestCancelAuthorization(t *testing.T) {
	f := newCancellationFixture(t)
	_, booking, _ := f.seedPaidBooking(t, 49, 5000)

	stranger := f.userRepo.addUser("stranger@example.com", entity.RoleMember)
	admin := f.userRepo.addUser("admin@example.com", entity.RoleAdmin)

	_, err := f.svc.Cancel(context.Background(), booking.ID, stranger.ID)
	assert.ErrorIs(t, err, entity.ErrForbidden)
	assert.Empty(t, f.gateway.refunds)

	result, err := f.svc.Cancel(context.Background(), booking.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.RefundPercent)
}

func TestCancelRefundFailureAbortsCancellation(t *testing.T) {
	f := newCancellationFixture(t)
	user, booking, order := f.seedPaidBooking(t, 49, 5000)

	f.gateway.refundErr = errors.New("gateway unavailable")

	_, err := f.svc.Cancel(context.Background(), booking.ID, user.ID)
	require.ErrorIs(t, err, entity.ErrRefundFailed)

	// The booking and order are untouched so the cancellation can be retried.
	got, err := f.bookingRepo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, got.Status)

	gotOrder, err := f.orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, gotOrder.Status)
}

func TestCancelUnknownBooking(t *testing.T) {
	f := newCancellationFixture(t)
	user := f.userRepo.addUser("player@example.com", entity.RoleMember)

	_, err := f.svc.Cancel(context.Background(), 404, user.ID)
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}
