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

// OpportunityRepository persists opportunities and their line items.
type OpportunityRepository struct {
	pool *pgxpool.Pool
}

func NewOpportunityRepository(pool *pgxpool.Pool) *OpportunityRepository {
	return &OpportunityRepository{pool: pool}
}

const selectOpportunityColumns = `
	id, enquiry_from, enquiry_type, lead_id, customer_id, customer_name,
	contact_email, contact_person, contact_display, contact_by, contact_date,
	to_discuss, title, status, order_lost_reason, transaction_date,
	fiscal_year, created_at, updated_at
`

func scanOpportunity(row pgx.Row) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := row.Scan(
		&opp.ID, &opp.EnquiryFrom, &opp.EnquiryType, &opp.LeadID, &opp.CustomerID,
		&opp.CustomerName, &opp.ContactEmail, &opp.ContactPerson, &opp.ContactDisplay,
		&opp.ContactBy, &opp.ContactDate, &opp.ToDiscuss, &opp.Title, &opp.Status,
		&opp.OrderLostReason, &opp.TransactionDate, &opp.FiscalYear,
		&opp.CreatedAt, &opp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *OpportunityRepository) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	query := `SELECT ` + selectOpportunityColumns + ` FROM opportunities WHERE id = $1`

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "Opportunity", ID: id}
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	opp.Items = items
	return opp, nil
}

func (r *OpportunityRepository) loadItems(ctx context.Context, opportunityID string) ([]domain.OpportunityItem, error) {
	query := `
		SELECT id, item_code, item_name, description, item_group, brand, uom, qty, rate
		FROM opportunity_items
		WHERE opportunity_id = $1
		ORDER BY idx
	`
	rows, err := r.pool.Query(ctx, query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("load opportunity items: %w", err)
	}
	defer rows.Close()

	var items []domain.OpportunityItem
	for rows.Next() {
		var it domain.OpportunityItem
		if err := rows.Scan(&it.ID, &it.ItemCode, &it.ItemName, &it.Description,
			&it.ItemGroup, &it.Brand, &it.UOM, &it.Qty, &it.Rate); err != nil {
			return nil, fmt.Errorf("scan opportunity item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO opportunities (
			id, enquiry_from, enquiry_type, lead_id, customer_id, customer_name,
			contact_email, contact_person, contact_display, contact_by, contact_date,
			to_discuss, title, status, order_lost_reason, transaction_date, fiscal_year,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW(),NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		opp.ID, opp.EnquiryFrom, opp.EnquiryType, opp.LeadID, opp.CustomerID,
		opp.CustomerName, opp.ContactEmail, opp.ContactPerson, opp.ContactDisplay,
		opp.ContactBy, opp.ContactDate, opp.ToDiscuss, opp.Title, opp.Status,
		opp.OrderLostReason, opp.TransactionDate, opp.FiscalYear,
	).Scan(&opp.CreatedAt, &opp.UpdatedAt)
	if err != nil {
		return classifyError(err, "create opportunity")
	}

	if err := r.insertItems(ctx, tx, opp); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE opportunities SET
			enquiry_from = $2, enquiry_type = $3, lead_id = $4, customer_id = $5,
			customer_name = $6, contact_email = $7, contact_person = $8,
			contact_display = $9, contact_by = $10, contact_date = $11,
			to_discuss = $12, title = $13, status = $14, order_lost_reason = $15,
			transaction_date = $16, fiscal_year = $17, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		opp.ID, opp.EnquiryFrom, opp.EnquiryType, opp.LeadID, opp.CustomerID,
		opp.CustomerName, opp.ContactEmail, opp.ContactPerson, opp.ContactDisplay,
		opp.ContactBy, opp.ContactDate, opp.ToDiscuss, opp.Title, opp.Status,
		opp.OrderLostReason, opp.TransactionDate, opp.FiscalYear,
	).Scan(&opp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Kind: "Opportunity", ID: opp.ID}
		}
		return classifyError(err, "update opportunity")
	}

	// Line items are replaced wholesale on every save.
	if _, err := tx.Exec(ctx, `DELETE FROM opportunity_items WHERE opportunity_id = $1`, opp.ID); err != nil {
		return fmt.Errorf("clear opportunity items: %w", err)
	}
	if err := r.insertItems(ctx, tx, opp); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *OpportunityRepository) insertItems(ctx context.Context, tx pgx.Tx, opp *domain.Opportunity) error {
	query := `
		INSERT INTO opportunity_items (
			id, opportunity_id, idx, item_code, item_name, description,
			item_group, brand, uom, qty, rate
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	for i := range opp.Items {
		it := &opp.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, query,
			it.ID, opp.ID, i, it.ItemCode, it.ItemName, it.Description,
			it.ItemGroup, it.Brand, it.UOM, it.Qty, it.Rate,
		); err != nil {
			return classifyError(err, "insert opportunity item")
		}
	}
	return nil
}

func (r *OpportunityRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "Opportunity", ID: id}
	}
	return nil
}

func (r *OpportunityRepository) List(ctx context.Context, status *domain.OpportunityStatus, limit, offset int) ([]domain.Opportunity, error) {
	query := `SELECT ` + selectOpportunityColumns + `
		FROM opportunities
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opps = append(opps, *opp)
	}
	return opps, rows.Err()
}

// SetStatus writes status and lost reason directly, bypassing the
// validate pipeline. Used by the lost declaration.
func (r *OpportunityRepository) SetStatus(ctx context.Context, id string, status domain.OpportunityStatus, lostReason *string) error {
	query := `
		UPDATE opportunities
		SET status = $2, order_lost_reason = COALESCE($3, order_lost_reason), updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status, lostReason)
	if err != nil {
		return classifyError(err, "set opportunity status")
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "Opportunity", ID: id}
	}
	return nil
}

func (r *OpportunityRepository) ExistsForLead(ctx context.Context, leadID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM opportunities WHERE lead_id = $1)`, leadID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check opportunities for lead: %w", err)
	}
	return exists, nil
}
