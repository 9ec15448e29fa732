package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// ReserveSpot decrements the session's remaining spots and inserts the
// booking in one transaction. The decrement is conditional on the session
// being open with enough spots, so concurrent reservations cannot oversell.
func (r *bookingRepository) ReserveSpot(ctx context.Context, sessionID, userID int64, guests int) (*entity.Booking, error) {
	spots := 1 + guests

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE sessions
		SET spots_remaining = spots_remaining - $1, updated_at = $2
		WHERE id = $3 AND status = 'open' AND spots_remaining >= $1
	`
	result, err := tx.ExecContext(ctx, query, spots, time.Now(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement spots: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either no such session, session not open, or not enough spots.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, sessionID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check session existence: %w", err)
		}
		if !exists {
			return nil, entity.ErrSessionNotFound
		}
		return nil, entity.ErrNotEnoughSpots
	}

	// Mark the session full once the last spot is taken.
	query = `UPDATE sessions SET status = 'full' WHERE id = $1 AND status = 'open' AND spots_remaining = 0`
	if _, err := tx.ExecContext(ctx, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to mark session full: %w", err)
	}

	now := time.Now()
	booking := &entity.Booking{
		SessionID:  sessionID,
		UserID:     userID,
		Guests:     guests,
		Status:     entity.BookingStatusReserved,
		ReservedAt: now,
	}

	query = `
		INSERT INTO bookings (session_id, user_id, guests, status, reserved_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		booking.SessionID,
		booking.UserID,
		booking.Guests,
		booking.Status,
		booking.ReservedAt,
	).Scan(&booking.ID)

	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `
		SELECT id, session_id, user_id, guests, status, reserved_at, confirmed_at, cancelled_at
		FROM bookings
		WHERE id = $1
	`

	var booking entity.Booking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.SessionID,
		&booking.UserID,
		&booking.Guests,
		&booking.Status,
		&booking.ReservedAt,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	query := `
		SELECT id, session_id, user_id, guests, status, reserved_at, confirmed_at, cancelled_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY reserved_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings by user: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.SessionID,
			&booking.UserID,
			&booking.Guests,
			&booking.Status,
			&booking.ReservedAt,
			&booking.ConfirmedAt,
			&booking.CancelledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', confirmed_at = $1
		WHERE id = $2 AND status = 'reserved'
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Already confirmed or cancelled; confirming twice is a no-op for
		// the webhook path, but a missing row is worth distinguishing.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if !exists {
			return entity.ErrBookingNotFound
		}
	}

	return nil
}

// CancelIfNotCancelled is the status-guarded compare-and-set the
// cancellation path relies on; the guard lives in the WHERE clause, not in
// application code.
func (r *bookingRepository) CancelIfNotCancelled(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $1
		WHERE id = $2 AND status <> 'cancelled'
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if !exists {
			return entity.ErrBookingNotFound
		}
		return entity.ErrAlreadyCancelled
	}

	return nil
}

func (r *bookingRepository) GetStale(ctx context.Context, before time.Time) ([]*entity.StaleBooking, error) {
	query := `
		SELECT b.id, b.session_id, b.user_id, b.guests, b.reserved_at
		FROM bookings b
		LEFT JOIN orders o ON o.booking_id = b.id AND o.status IN ('pending', 'paid')
		WHERE b.status = 'reserved' AND b.reserved_at < $1 AND o.id IS NULL
		ORDER BY b.reserved_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale bookings: %w", err)
	}
	defer rows.Close()

	var stale []*entity.StaleBooking
	for rows.Next() {
		var b entity.StaleBooking
		if err := rows.Scan(&b.BookingID, &b.SessionID, &b.UserID, &b.Guests, &b.ReservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stale booking: %w", err)
		}
		stale = append(stale, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale bookings: %w", err)
	}

	return stale, nil
}
