package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (
			booking_id, user_id, amount_cents, discount_cents,
			stripe_payment_intent_id, status, is_split, split_group_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now()
	if order.Status == "" {
		order.Status = entity.OrderStatusPending
	}

	err := r.db.QueryRowContext(ctx, query,
		order.BookingID,
		order.UserID,
		order.AmountCents,
		order.DiscountCents,
		nullString(order.StripePaymentIntentID),
		order.Status,
		order.IsSplit,
		nullString(order.SplitGroupID),
		now,
		now,
	).Scan(&order.ID)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	query := orderSelect + ` WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetPaidByBookingID returns the most recent paid order for a booking; at
// most one is expected.
func (r *orderRepository) GetPaidByBookingID(ctx context.Context, bookingID int64) (*entity.Order, error) {
	query := orderSelect + `
		WHERE booking_id = $1 AND status = 'paid'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, bookingID))
}

// GetPendingByBookingID enforces the at-most-one-open-order invariant on
// the payment-setup path.
func (r *orderRepository) GetPendingByBookingID(ctx context.Context, bookingID int64) (*entity.Order, error) {
	query := orderSelect + `
		WHERE booking_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, bookingID))
}

func (r *orderRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Order, error) {
	query := orderSelect + ` WHERE stripe_payment_intent_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, paymentIntentID))
}

func (r *orderRepository) GetBySplitGroupID(ctx context.Context, splitGroupID string) ([]*entity.Order, error) {
	query := orderSelect + ` WHERE split_group_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, splitGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders by split group: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrOrderNotFound
	}

	return nil
}

const orderSelect = `
	SELECT id, booking_id, user_id, amount_cents, discount_cents,
	       COALESCE(stripe_payment_intent_id, ''), status, is_split,
	       COALESCE(split_group_id, ''), created_at, updated_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var order entity.Order
	err := row.Scan(
		&order.ID,
		&order.BookingID,
		&order.UserID,
		&order.AmountCents,
		&order.DiscountCents,
		&order.StripePaymentIntentID,
		&order.Status,
		&order.IsSplit,
		&order.SplitGroupID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) scanOne(row *sql.Row) (*entity.Order, error) {
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
