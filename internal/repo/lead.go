package repo

import (
	"context"
	"errors"
	"fmt"

	"prospect-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeadRepository persists leads.
type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

const selectLeadColumns = `id, lead_name, email_id, status, created_at, updated_at`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(&lead.ID, &lead.LeadName, &lead.EmailID, &lead.Status,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Get(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+selectLeadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "Lead", ID: id}
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// FindByEmail returns (nil, nil) when no lead carries the email.
func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+selectLeadColumns+` FROM leads WHERE email_id = $1 ORDER BY created_at LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find lead by email: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (id, lead_name, email_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, lead.ID, lead.LeadName, lead.EmailID, lead.Status).
		Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return classifyError(err, "create lead")
	}
	return nil
}

func (r *LeadRepository) SetStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return classifyError(err, "set lead status")
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "Lead", ID: id}
	}
	return nil
}
