package repo

import (
	"context"
	"errors"
	"fmt"

	"prospect-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository reads the item catalog.
type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// GetFields returns (nil, nil) for unknown item codes; callers decide how
// to degrade.
func (r *ItemRepository) GetFields(ctx context.Context, itemCode string) (*domain.Item, error) {
	query := `
		SELECT item_code, item_name, description, item_group, brand, stock_uom, image
		FROM items
		WHERE item_code = $1
	`
	var item domain.Item
	err := r.pool.QueryRow(ctx, query, itemCode).Scan(
		&item.ItemCode, &item.ItemName, &item.Description, &item.ItemGroup,
		&item.Brand, &item.StockUOM, &item.Image,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item fields: %w", err)
	}
	return &item, nil
}
