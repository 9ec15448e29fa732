package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	cache "github.com/courtsidehq/booking-server/internal/database/redis"
	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
	"github.com/courtsidehq/booking-server/pkg/mq"
)

type cancellationService struct {
	bookingRepo repository.BookingRepository
	sessionRepo repository.SessionRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	gateway     payments.Gateway
	cache       *cache.SessionCache
	publisher   EventPublisher
	logger      *logrus.Logger
	now         func() time.Time
}

func NewCancellationService(
	bookingRepo repository.BookingRepository,
	sessionRepo repository.SessionRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateway payments.Gateway,
	sessionCache *cache.SessionCache,
	publisher EventPublisher,
	logger *logrus.Logger,
) CancellationService {
	return &cancellationService{
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		cache:       sessionCache,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Cancel runs the cancellation sequence: authorize, quote the refund, issue
// it through the gateway, then flip the booking to cancelled. The refund
// happens before the status write so a gateway failure aborts the whole
// operation with the booking untouched.
func (s *cancellationService) Cancel(ctx context.Context, bookingID, requestingUserID int64) (*CancellationResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusCancelled {
		return nil, entity.ErrAlreadyCancelled
	}

	if booking.UserID != requestingUserID {
		requester, err := s.userRepo.GetByID(ctx, requestingUserID)
		if err != nil {
			if errors.Is(err, entity.ErrUserNotFound) {
				return nil, entity.ErrForbidden
			}
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, entity.ErrForbidden
		}
	}

	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}

	hoursUntilStart := session.StartsAt.Sub(s.now()).Hours()

	// A booking with no completed payment cancels with a zero refund.
	order, err := s.orderRepo.GetPaidByBookingID(ctx, booking.ID)
	if err != nil && !errors.Is(err, entity.ErrOrderNotFound) {
		return nil, err
	}

	var quote RefundQuote
	if order != nil {
		quote = QuoteRefund(order.AmountCents, hoursUntilStart)
	}

	if order != nil && quote.AmountCents > 0 {
		if err := s.gateway.CreateRefund(ctx, order.StripePaymentIntentID, quote.AmountCents); err != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"order_id":   order.ID,
				"amount":     quote.AmountCents,
			}).WithError(err).Error("refund failed, aborting cancellation")
			return nil, fmt.Errorf("%w: %v", entity.ErrRefundFailed, err)
		}
	}

	cancelledAt := s.now()
	if err := s.bookingRepo.CancelIfNotCancelled(ctx, booking.ID, cancelledAt); err != nil {
		return nil, err
	}

	// A full refund retires the order; a partial refund leaves it paid so
	// the remaining captured amount stays accounted for.
	if order != nil && quote.Percent == 100 {
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusRefunded); err != nil {
			s.logger.WithField("order_id", order.ID).WithError(err).Warn("failed to mark order refunded after full refund")
		}
	}

	if err := s.sessionRepo.ReleaseSpots(ctx, session.ID, 1+booking.Guests); err != nil {
		s.logger.WithField("session_id", session.ID).WithError(err).Warn("failed to release spots after cancellation")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, session.ID); err != nil {
			s.logger.WithField("session_id", session.ID).WithError(err).Warn("failed to invalidate session cache")
		}
	}

	if s.publisher != nil {
		event := map[string]interface{}{
			"booking_id":          booking.ID,
			"session_id":          session.ID,
			"user_id":             booking.UserID,
			"refund_amount_cents": quote.AmountCents,
			"refund_percent":      quote.Percent,
			"cancelled_at":        cancelledAt,
		}
		if err := s.publisher.PublishJSON(ctx, mq.RoutingBookingCancelled, event); err != nil {
			s.logger.WithError(err).Warn("failed to publish booking.cancelled")
		}
	}

	return &CancellationResult{
		RefundAmountCents: quote.AmountCents,
		RefundPercent:     quote.Percent,
		BookingStatus:     entity.BookingStatusCancelled,
	}, nil
}
