package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
)

// Dedup ledger for gateway events. Duplicate deliveries hit the primary key
// and are reported as already-seen.
type webhookEventRepository struct {
	db *sql.DB
}

func NewWebhookEventRepository(db *sql.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) RecordIfNew(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`

	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query, event.EventID, event.EventType, event.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes an event from the ledger so a redelivery is processed
// again. Used when handling failed after the event was recorded.
func (r *webhookEventRepository) Delete(ctx context.Context, eventID string) error {
	query := `DELETE FROM webhook_events WHERE event_id = $1`

	if _, err := r.db.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to delete webhook event: %w", err)
	}

	return nil
}
