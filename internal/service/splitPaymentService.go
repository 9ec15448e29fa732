package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
)

type splitPaymentService struct {
	sessionRepo    repository.SessionRepository
	bookingRepo    repository.BookingRepository
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	gateway        payments.Gateway
	currency       string
	logger         *logrus.Logger
}

func NewSplitPaymentService(
	sessionRepo repository.SessionRepository,
	bookingRepo repository.BookingRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	gateway payments.Gateway,
	currency string,
	logger *logrus.Logger,
) SplitPaymentService {
	return &splitPaymentService{
		sessionRepo:    sessionRepo,
		bookingRepo:    bookingRepo,
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		gateway:        gateway,
		currency:       currency,
		logger:         logger,
	}
}

// SplitPay divides the session price across the listed participants. The
// preconditions (session open, enough spots for everyone) fail the whole
// request; past that point each participant is processed independently and
// failures land in that participant's manifest entry only.
func (s *splitPaymentService) SplitPay(ctx context.Context, sessionID int64, identifiers []string, organizerUserID int64) (*SplitPayResult, error) {
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("%w: participant list is empty", entity.ErrInvalidInput)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusOpen {
		return nil, entity.ErrSessionNotOpen
	}
	if session.SpotsRemaining < len(identifiers) {
		return nil, entity.ErrNotEnoughSpots
	}

	count := int64(len(identifiers))
	perPerson := (session.PriceCents + count - 1) / count
	splitGroupID := uuid.NewString()

	result := &SplitPayResult{
		SplitGroupID:   splitGroupID,
		PerPersonCents: perPerson,
		Results:        make([]PlayerResult, 0, len(identifiers)),
	}

	for _, identifier := range identifiers {
		result.Results = append(result.Results, s.processParticipant(
			ctx, session, identifier, perPerson, splitGroupID, organizerUserID,
		))
	}

	return result, nil
}

// processParticipant handles one leg of the split. Spots reserved before a
// later step fails stay reserved; the expiry worker releases them when the
// participant never completes payment.
func (s *splitPaymentService) processParticipant(
	ctx context.Context,
	session *entity.Session,
	identifier string,
	perPerson int64,
	splitGroupID string,
	organizerUserID int64,
) PlayerResult {
	res := PlayerResult{Identifier: identifier}

	user, err := s.userRepo.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			res.Error = "no account registered for this email"
		} else {
			s.logger.WithField("identifier", identifier).WithError(err).Error("participant lookup failed")
			res.Error = "participant lookup failed"
		}
		return res
	}

	booking, err := s.bookingRepo.ReserveSpot(ctx, session.ID, user.ID, 0)
	if err != nil {
		if errors.Is(err, entity.ErrNotEnoughSpots) {
			res.Error = "no spots remaining"
		} else {
			s.logger.WithField("user_id", user.ID).WithError(err).Error("participant reservation failed")
			res.Error = "reservation failed"
		}
		return res
	}
	res.BookingID = booking.ID

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Error("customer setup failed")
		res.Error = "payment setup failed"
		return res
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.CreateIntentInput{
		AmountCents: perPerson,
		Currency:    s.currency,
		CustomerID:  customerID,
		Metadata: map[string]string{
			"booking_id":        strconv.FormatInt(booking.ID, 10),
			"session_id":        strconv.FormatInt(session.ID, 10),
			"split_group_id":    splitGroupID,
			"organizer_user_id": strconv.FormatInt(organizerUserID, 10),
		},
	})
	if err != nil {
		s.logger.WithField("booking_id", booking.ID).WithError(err).Error("payment intent creation failed")
		res.Error = "payment setup failed"
		return res
	}

	order := &entity.Order{
		BookingID:             booking.ID,
		UserID:                user.ID,
		AmountCents:           perPerson,
		StripePaymentIntentID: intent.ID,
		Status:                entity.OrderStatusPending,
		IsSplit:               true,
		SplitGroupID:          splitGroupID,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.WithField("booking_id", booking.ID).WithError(err).Error("order creation failed")
		res.Error = "payment setup failed"
		return res
	}

	res.OrderID = order.ID
	res.PaymentClientSecret = intent.ClientSecret
	return res
}

// CreateIntent sets up payment for a single non-split booking, applying the
// member discount when the payer holds an active membership.
func (s *splitPaymentService) CreateIntent(ctx context.Context, bookingID, userID int64) (*IntentResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, entity.ErrForbidden
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, entity.ErrAlreadyCancelled
	}

	if _, err := s.orderRepo.GetPaidByBookingID(ctx, booking.ID); err == nil {
		return nil, entity.ErrAlreadyPaid
	} else if !errors.Is(err, entity.ErrOrderNotFound) {
		return nil, err
	}
	if _, err := s.orderRepo.GetPendingByBookingID(ctx, booking.ID); err == nil {
		return nil, entity.ErrPaymentInProgress
	} else if !errors.Is(err, entity.ErrOrderNotFound) {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount := session.PriceCents
	var discount int64
	membership, err := s.membershipRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, entity.ErrMembershipNotFound) {
		return nil, err
	}
	if membership != nil && membership.Status == entity.MembershipStatusActive {
		_, benefits := entity.BenefitsForTier(membership.Tier)
		discount = amount * int64(benefits.DiscountPercent) / 100
		amount -= discount
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.CreateIntentInput{
		AmountCents: amount,
		Currency:    s.currency,
		CustomerID:  customerID,
		Metadata: map[string]string{
			"booking_id": strconv.FormatInt(booking.ID, 10),
			"session_id": strconv.FormatInt(session.ID, 10),
			"user_id":    strconv.FormatInt(userID, 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	order := &entity.Order{
		BookingID:             booking.ID,
		UserID:                userID,
		AmountCents:           amount,
		DiscountCents:         discount,
		StripePaymentIntentID: intent.ID,
		Status:                entity.OrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return &IntentResult{
		OrderID:             order.ID,
		PaymentClientSecret: intent.ClientSecret,
		AmountCents:         amount,
		DiscountCents:       discount,
	}, nil
}

func (s *splitPaymentService) ensureCustomer(ctx context.Context, user *entity.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", err
	}
	user.StripeCustomerID = customerID

	return customerID, nil
}
