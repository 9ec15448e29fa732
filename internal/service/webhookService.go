package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
	"github.com/courtsidehq/booking-server/pkg/mq"
)

// webhookService is the reconciliation router: the only component that
// moves orders to paid/failed and drives the membership lifecycle. Every
// handler is idempotent, so the gateway redelivering an event is safe.
type webhookService struct {
	orderRepo      repository.OrderRepository
	bookingRepo    repository.BookingRepository
	membershipRepo repository.MembershipRepository
	eventRepo      repository.WebhookEventRepository
	gateway        payments.Gateway
	publisher      EventPublisher
	logger         *logrus.Logger
	now            func() time.Time
}

func NewWebhookService(
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	membershipRepo repository.MembershipRepository,
	eventRepo repository.WebhookEventRepository,
	gateway payments.Gateway,
	publisher EventPublisher,
	logger *logrus.Logger,
) WebhookService {
	return &webhookService{
		orderRepo:      orderRepo,
		bookingRepo:    bookingRepo,
		membershipRepo: membershipRepo,
		eventRepo:      eventRepo,
		gateway:        gateway,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *webhookService) Process(ctx context.Context, event *payments.Event) error {
	fresh, err := s.eventRepo.RecordIfNew(ctx, &entity.WebhookEvent{
		EventID:    event.ID,
		EventType:  event.Type,
		ReceivedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !fresh {
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Info("duplicate webhook event, skipping")
		return nil
	}

	if err := s.route(ctx, event); err != nil {
		// Un-record the event so the gateway's redelivery gets another
		// attempt instead of hitting the dedup ledger.
		if delErr := s.eventRepo.Delete(ctx, event.ID); delErr != nil {
			s.logger.WithField("event_id", event.ID).WithError(delErr).Warn("failed to un-record webhook event")
		}
		return err
	}

	return nil
}

func (s *webhookService) route(ctx context.Context, event *payments.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		return s.handlePaymentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		return s.handlePaymentFailed(ctx, event)
	case "customer.subscription.created":
		return s.handleSubscriptionCreated(ctx, event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)
	default:
		s.logger.WithField("event_type", event.Type).Info("unhandled webhook event type")
		return nil
	}
}

func (s *webhookService) handlePaymentSucceeded(ctx context.Context, event *payments.Event) error {
	var payload payments.PaymentIntentPayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode payment intent payload: %w", err)
	}

	order, err := s.orderRepo.GetByPaymentIntentID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			// Payment completed for an intent we never issued an order
			// against, e.g. after the reservation expired. Nothing to
			// reconcile on our side.
			s.logger.WithField("payment_intent_id", payload.ID).Warn("payment succeeded for unknown order")
			return nil
		}
		return err
	}

	if order.Status == entity.OrderStatusPaid {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusPaid); err != nil {
		return err
	}

	if err := s.bookingRepo.Confirm(ctx, order.BookingID, s.now()); err != nil {
		if !errors.Is(err, entity.ErrBookingNotFound) {
			return err
		}
		s.logger.WithField("booking_id", order.BookingID).Warn("paid order references missing booking")
	}

	if s.publisher != nil {
		e := map[string]interface{}{
			"booking_id":   order.BookingID,
			"order_id":     order.ID,
			"user_id":      order.UserID,
			"amount_cents": order.AmountCents,
		}
		if err := s.publisher.PublishJSON(ctx, mq.RoutingBookingConfirmed, e); err != nil {
			s.logger.WithError(err).Warn("failed to publish booking.confirmed")
		}
	}

	return nil
}

func (s *webhookService) handlePaymentFailed(ctx context.Context, event *payments.Event) error {
	var payload payments.PaymentIntentPayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode payment intent payload: %w", err)
	}

	order, err := s.orderRepo.GetByPaymentIntentID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			s.logger.WithField("payment_intent_id", payload.ID).Warn("payment failed for unknown order")
			return nil
		}
		return err
	}

	// Terminal states are never overwritten by a late failure event.
	if order.Status != entity.OrderStatusPending {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusFailed); err != nil {
		return err
	}

	// The booking stays reserved; the expiry worker releases its spot when
	// the reservation window runs out without a retry.

	if s.publisher != nil {
		e := map[string]interface{}{
			"booking_id": order.BookingID,
			"order_id":   order.ID,
			"user_id":    order.UserID,
		}
		if err := s.publisher.PublishJSON(ctx, mq.RoutingPaymentFailed, e); err != nil {
			s.logger.WithError(err).Warn("failed to publish payment.failed")
		}
	}

	return nil
}

func (s *webhookService) handleSubscriptionCreated(ctx context.Context, event *payments.Event) error {
	var payload payments.SubscriptionPayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode subscription payload: %w", err)
	}

	userID, err := strconv.ParseInt(payload.Metadata["user_id"], 10, 64)
	if err != nil {
		s.logger.WithField("subscription_id", payload.ID).Warn("subscription created without a user_id, ignoring")
		return nil
	}

	tier, benefits := entity.BenefitsForTier(entity.MembershipTier(payload.Metadata["tier"]))

	membership := &entity.Membership{
		UserID:                 userID,
		Tier:                   tier,
		ExternalSubscriptionID: payload.ID,
		Status:                 mapSubscriptionStatus(payload.Status),
		DiscountPercent:        benefits.DiscountPercent,
		PriorityBookingHours:   benefits.PriorityBookingHours,
		GuestPassesRemaining:   benefits.GuestPasses,
		CurrentPeriodStart:     time.Unix(payload.CurrentPeriodStart, 0),
		CurrentPeriodEnd:       time.Unix(payload.CurrentPeriodEnd, 0),
	}

	inserted, err := s.membershipRepo.CreateIfAbsent(ctx, membership)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.WithField("subscription_id", payload.ID).Info("membership already exists for subscription")
	}

	return nil
}

func (s *webhookService) handleSubscriptionUpdated(ctx context.Context, event *payments.Event) error {
	var payload payments.SubscriptionPayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode subscription payload: %w", err)
	}

	err := s.membershipRepo.UpdateStatusAndPeriod(
		ctx,
		payload.ID,
		mapSubscriptionStatus(payload.Status),
		time.Unix(payload.CurrentPeriodStart, 0),
		time.Unix(payload.CurrentPeriodEnd, 0),
	)
	if errors.Is(err, entity.ErrMembershipNotFound) {
		s.logger.WithField("subscription_id", payload.ID).Warn("subscription update for unknown membership")
		return nil
	}
	return err
}

func (s *webhookService) handleSubscriptionDeleted(ctx context.Context, event *payments.Event) error {
	var payload payments.SubscriptionPayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode subscription payload: %w", err)
	}

	err := s.membershipRepo.UpdateStatus(ctx, payload.ID, entity.MembershipStatusCancelled)
	if errors.Is(err, entity.ErrMembershipNotFound) {
		s.logger.WithField("subscription_id", payload.ID).Warn("subscription deleted for unknown membership")
		return nil
	}
	return err
}

// handleInvoicePaid re-activates a membership after a successful renewal
// charge, pulling the fresh billing period from the gateway.
func (s *webhookService) handleInvoicePaid(ctx context.Context, event *payments.Event) error {
	var payload payments.InvoicePayload
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		return fmt.Errorf("failed to decode invoice payload: %w", err)
	}

	if payload.Subscription == "" {
		// One-off invoices are reconciled through payment_intent events.
		return nil
	}

	sub, err := s.gateway.GetSubscription(ctx, payload.Subscription)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription for invoice: %w", err)
	}

	// A paid invoice means the subscription is in good standing, whatever
	// transient status the gateway reports alongside it.
	err = s.membershipRepo.UpdateStatusAndPeriod(
		ctx,
		sub.ID,
		entity.MembershipStatusActive,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
	)
	if errors.Is(err, entity.ErrMembershipNotFound) {
		s.logger.WithField("subscription_id", sub.ID).Warn("invoice paid for unknown membership")
		return nil
	}
	return err
}

// mapSubscriptionStatus folds the gateway's subscription statuses onto the
// membership lifecycle. Unknown statuses are treated as active rather than
// silently revoking a paid member's benefits.
func mapSubscriptionStatus(status string) entity.MembershipStatus {
	switch status {
	case "past_due", "unpaid":
		return entity.MembershipStatusPastDue
	case "canceled":
		return entity.MembershipStatusCancelled
	default:
		return entity.MembershipStatusActive
	}
}
