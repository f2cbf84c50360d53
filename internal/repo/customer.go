package repo

import (
	"context"
	"errors"
	"fmt"

	"prospect-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerRepository reads customers and their contacts. Customer records
// are owned by the surrounding system; this service only consumes them.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Get excludes cancelled customers, which surface as not found.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	query := `
		SELECT id, customer_name, address, territory, customer_group, cancelled, created_at
		FROM customers
		WHERE id = $1 AND cancelled = FALSE
	`
	var c domain.Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CustomerName, &c.Address, &c.Territory, &c.CustomerGroup,
		&c.Cancelled, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "Customer", ID: id}
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// PrimaryContact returns the customer's designated primary contact, or
// (nil, nil) when none is designated.
func (r *CustomerRepository) PrimaryContact(ctx context.Context, customerID string) (*domain.Contact, error) {
	query := `
		SELECT id, customer_id, contact_name, contact_no, email_id,
		       is_customer_contact, is_primary, cancelled
		FROM contacts
		WHERE customer_id = $1
		  AND is_customer_contact = TRUE
		  AND is_primary = TRUE
		  AND cancelled = FALSE
		LIMIT 1
	`
	var c domain.Contact
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&c.ID, &c.CustomerID, &c.ContactName, &c.ContactNo, &c.EmailID,
		&c.IsCustomerContact, &c.IsPrimary, &c.Cancelled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get primary contact: %w", err)
	}
	return &c, nil
}
