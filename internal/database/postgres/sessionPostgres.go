package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (title, price_cents, spots_remaining, status, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	if session.Status == "" {
		session.Status = entity.SessionStatusOpen
	}

	err := r.db.QueryRowContext(ctx, query,
		session.Title,
		session.PriceCents,
		session.SpotsRemaining,
		session.Status,
		session.StartsAt,
		now,
		now,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id int64) (*entity.Session, error) {
	query := `
		SELECT id, title, price_cents, spots_remaining, status, starts_at, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	var session entity.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Title,
		&session.PriceCents,
		&session.SpotsRemaining,
		&session.Status,
		&session.StartsAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) GetOpen(ctx context.Context) ([]*entity.Session, error) {
	query := `
		SELECT id, title, price_cents, spots_remaining, status, starts_at, created_at, updated_at
		FROM sessions
		WHERE status = 'open' AND starts_at > NOW()
		ORDER BY starts_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		var session entity.Session
		err := rows.Scan(
			&session.ID,
			&session.Title,
			&session.PriceCents,
			&session.SpotsRemaining,
			&session.Status,
			&session.StartsAt,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id int64, status entity.SessionStatus) error {
	query := `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) ReleaseSpots(ctx context.Context, sessionID int64, spots int) error {
	query := `
		UPDATE sessions
		SET spots_remaining = spots_remaining + $1,
		    status = CASE WHEN status = 'full' THEN 'open' ELSE status END,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, spots, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to release spots: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrSessionNotFound
	}

	return nil
}
