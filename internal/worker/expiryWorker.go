package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtsidehq/booking-server/internal/service"
)

// ReservationExpiryWorker periodically sweeps reserved bookings whose
// payment never completed, releasing their held spots back to the session.
type ReservationExpiryWorker struct {
	bookingService service.BookingService
	interval       time.Duration
	logger         *logrus.Logger
}

func NewReservationExpiryWorker(bookingService service.BookingService, interval time.Duration, logger *logrus.Logger) *ReservationExpiryWorker {
	return &ReservationExpiryWorker{
		bookingService: bookingService,
		interval:       interval,
		logger:         logger,
	}
}

func (w *ReservationExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reservation expiry worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reservation expiry worker stopped")
			return
		case <-ticker.C:
			if err := w.bookingService.ExpireStaleReservations(ctx); err != nil {
				w.logger.WithError(err).Error("reservation expiry sweep failed")
			}
		}
	}
}
