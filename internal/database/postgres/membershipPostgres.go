package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// CreateIfAbsent relies on the unique index on external_subscription_id:
// ON CONFLICT DO NOTHING makes duplicate subscription_created deliveries
// insert exactly one row.
func (r *membershipRepository) CreateIfAbsent(ctx context.Context, m *entity.Membership) (bool, error) {
	query := `
		INSERT INTO memberships (
			user_id, tier, external_subscription_id, status,
			discount_percent, priority_booking_hours, guest_passes_remaining,
			current_period_start, current_period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_subscription_id) DO NOTHING
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		m.UserID,
		m.Tier,
		m.ExternalSubscriptionID,
		m.Status,
		m.DiscountPercent,
		m.PriorityBookingHours,
		m.GuestPassesRemaining,
		m.CurrentPeriodStart,
		m.CurrentPeriodEnd,
		now,
		now,
	).Scan(&m.ID)

	if err == sql.ErrNoRows {
		// Conflict: a membership for this subscription already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create membership: %w", err)
	}

	m.CreatedAt = now
	m.UpdatedAt = now
	return true, nil
}

const membershipSelect = `
	SELECT id, user_id, tier, external_subscription_id, status,
	       discount_percent, priority_booking_hours, guest_passes_remaining,
	       current_period_start, current_period_end, created_at, updated_at
	FROM memberships`

func scanMembership(row rowScanner) (*entity.Membership, error) {
	var m entity.Membership
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Tier,
		&m.ExternalSubscriptionID,
		&m.Status,
		&m.DiscountPercent,
		&m.PriorityBookingHours,
		&m.GuestPassesRemaining,
		&m.CurrentPeriodStart,
		&m.CurrentPeriodEnd,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*entity.Membership, error) {
	query := membershipSelect + ` WHERE external_subscription_id = $1`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, subscriptionID))
	if err == sql.ErrNoRows {
		return nil, entity.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func (r *membershipRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Membership, error) {
	query := membershipSelect + `
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, entity.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership by user: %w", err)
	}
	return m, nil
}

func (r *membershipRepository) UpdateStatusAndPeriod(ctx context.Context, subscriptionID string, status entity.MembershipStatus, periodStart, periodEnd time.Time) error {
	query := `
		UPDATE memberships
		SET status = $1, current_period_start = $2, current_period_end = $3, updated_at = $4
		WHERE external_subscription_id = $5
	`

	result, err := r.db.ExecContext(ctx, query, status, periodStart, periodEnd, time.Now(), subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrMembershipNotFound
	}

	return nil
}

func (r *membershipRepository) UpdateStatus(ctx context.Context, subscriptionID string, status entity.MembershipStatus) error {
	query := `UPDATE memberships SET status = $1, updated_at = $2 WHERE external_subscription_id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to update membership status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrMembershipNotFound
	}

	return nil
}
