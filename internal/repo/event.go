package repo

import (
	"context"
	"errors"
	"fmt"

	"prospect-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository persists calendar follow-up events, one per owning
// document unless a fresh event is forced.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Upsert refreshes the existing event for the owner, or creates one when
// none exists. force always creates a new event.
func (r *EventRepository) Upsert(ctx context.Context, ownerDoc string, fields domain.EventFields, force bool) (string, error) {
	if !force {
		var id string
		err := r.pool.QueryRow(ctx,
			`SELECT id FROM calendar_events WHERE owner_doc = $1 ORDER BY created_at DESC LIMIT 1`,
			ownerDoc,
		).Scan(&id)
		switch {
		case err == nil:
			updateQuery := `
				UPDATE calendar_events
				SET subject = $2, description = $3, due_date = $4, updated_at = NOW()
				WHERE id = $1
			`
			if _, err := r.pool.Exec(ctx, updateQuery, id, fields.Subject, fields.Description, fields.DueDate); err != nil {
				return "", fmt.Errorf("update calendar event: %w", err)
			}
			return id, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return "", fmt.Errorf("find calendar event: %w", err)
		}
	}

	id := "EV-" + uuid.NewString()[:8]
	insertQuery := `
		INSERT INTO calendar_events (id, owner_doc, subject, description, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	if _, err := r.pool.Exec(ctx, insertQuery, id, ownerDoc, fields.Subject, fields.Description, fields.DueDate); err != nil {
		return "", classifyError(err, "create calendar event")
	}
	return id, nil
}

// DeleteForOwner removes all events owned by the document. No-op when
// none exist.
func (r *EventRepository) DeleteForOwner(ctx context.Context, ownerDoc string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM calendar_events WHERE owner_doc = $1`, ownerDoc); err != nil {
		return fmt.Errorf("delete calendar events: %w", err)
	}
	return nil
}
