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
)

type bookingService struct {
	bookingRepo       repository.BookingRepository
	sessionRepo       repository.SessionRepository
	userRepo          repository.UserRepository
	membershipRepo    repository.MembershipRepository
	cache             *cache.SessionCache
	reservationWindow time.Duration
	logger            *logrus.Logger
	now               func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	sessionCache *cache.SessionCache,
	reservationWindow time.Duration,
	logger *logrus.Logger,
) BookingService {
	return &bookingService{
		bookingRepo:       bookingRepo,
		sessionRepo:       sessionRepo,
		userRepo:          userRepo,
		membershipRepo:    membershipRepo,
		cache:             sessionCache,
		reservationWindow: reservationWindow,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *bookingService) Reserve(ctx context.Context, sessionID, userID int64, guests int) (*entity.Booking, error) {
	if guests < 0 {
		return nil, fmt.Errorf("%w: guests must not be negative", entity.ErrInvalidInput)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	// Bringing guests requires a membership with enough guest passes.
	if guests > 0 {
		membership, err := s.membershipRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, entity.ErrMembershipNotFound) {
				return nil, fmt.Errorf("%w: guest passes require a membership", entity.ErrInvalidInput)
			}
			return nil, err
		}
		if membership.Status != entity.MembershipStatusActive || membership.GuestPassesRemaining < guests {
			return nil, fmt.Errorf("%w: not enough guest passes", entity.ErrInvalidInput)
		}
	}

	booking, err := s.bookingRepo.ReserveSpot(ctx, sessionID, userID, guests)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, sessionID); err != nil {
			s.logger.WithField("session_id", sessionID).WithError(err).Warn("failed to invalidate session cache")
		}
	}

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	return s.bookingRepo.GetByUserID(ctx, userID)
}

// ExpireStaleReservations cancels reserved bookings whose payment never
// completed within the reservation window and returns their spots to the
// session. Each booking is handled independently so one failure does not
// stall the sweep.
func (s *bookingService) ExpireStaleReservations(ctx context.Context) error {
	cutoff := s.now().Add(-s.reservationWindow)

	stale, err := s.bookingRepo.GetStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale reservations: %w", err)
	}

	for _, b := range stale {
		if err := s.bookingRepo.CancelIfNotCancelled(ctx, b.BookingID, s.now()); err != nil {
			if !errors.Is(err, entity.ErrAlreadyCancelled) {
				s.logger.WithField("booking_id", b.BookingID).WithError(err).Error("failed to expire reservation")
			}
			continue
		}

		if err := s.sessionRepo.ReleaseSpots(ctx, b.SessionID, 1+b.Guests); err != nil {
			s.logger.WithField("session_id", b.SessionID).WithError(err).Error("failed to release spots for expired reservation")
			continue
		}

		if s.cache != nil {
			if err := s.cache.Delete(ctx, b.SessionID); err != nil {
				s.logger.WithField("session_id", b.SessionID).WithError(err).Warn("failed to invalidate session cache")
			}
		}

		s.logger.WithFields(logrus.Fields{
			"booking_id": b.BookingID,
			"session_id": b.SessionID,
			"user_id":    b.UserID,
		}).Info("reservation expired")
	}

	return nil
}
