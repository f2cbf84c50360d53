package repo

import (
	"context"
	"fmt"

	"prospect-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuotationRepository persists quotations and answers the back-reference
// lookups the opportunity core depends on.
type QuotationRepository struct {
	pool *pgxpool.Pool
}

func NewQuotationRepository(pool *pgxpool.Pool) *QuotationRepository {
	return &QuotationRepository{pool: pool}
}

func (r *QuotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quotations (
			id, quotation_to, order_type, enq_no, customer_id, lead_id,
			customer_name, currency, status, submitted, net_total, grand_total,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		q.ID, q.QuotationTo, q.OrderType, q.EnqNo, q.CustomerID, q.LeadID,
		q.CustomerName, q.Currency, q.Status, q.Submitted, q.NetTotal, q.GrandTotal,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return classifyError(err, "create quotation")
	}

	itemQuery := `
		INSERT INTO quotation_items (
			id, quotation_id, idx, item_code, item_name, description, item_group,
			brand, stock_uom, qty, rate, amount, prevdoc_docname, prevdoc_doctype
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`
	for i := range q.Items {
		it := &q.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, itemQuery,
			it.ID, q.ID, i, it.ItemCode, it.ItemName, it.Description, it.ItemGroup,
			it.Brand, it.StockUOM, it.Qty, it.Rate, it.Amount,
			it.PrevdocDocname, it.PrevdocDoctype,
		); err != nil {
			return classifyError(err, "insert quotation item")
		}
	}

	return tx.Commit(ctx)
}

// HasSubmittedItemFor reports whether a submitted quotation carries a
// line referencing the opportunity.
func (r *QuotationRepository) HasSubmittedItemFor(ctx context.Context, opportunityID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM quotation_items qi
			JOIN quotations q ON q.id = qi.quotation_id
			WHERE qi.prevdoc_docname = $1 AND q.submitted = TRUE
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, opportunityID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check submitted quotation items: %w", err)
	}
	return exists, nil
}

// OrderedQuotationIDs lists submitted quotations in Ordered status that
// trace back to the opportunity through at least one line.
func (r *QuotationRepository) OrderedQuotationIDs(ctx context.Context, opportunityID string) ([]string, error) {
	query := `
		SELECT DISTINCT q.id
		FROM quotations q
		JOIN quotation_items qi ON q.id = qi.quotation_id
		WHERE q.submitted = TRUE
		  AND q.status = $1
		  AND qi.prevdoc_docname = $2
		ORDER BY q.id
	`
	rows, err := r.pool.Query(ctx, query, domain.QuotationStatusOrdered, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list ordered quotations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan quotation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
