package service

import (
	"context"
	"fmt"

	"prospect-api/internal/domain"
)

// ItemDetails returns the catalog view of an item. Unknown item codes and
// absent fields come back as empty strings, never as an error.
func (s *OpportunityService) ItemDetails(ctx context.Context, itemCode string) (*domain.ItemDetails, error) {
	item, err := s.items.GetFields(ctx, itemCode)
	if err != nil {
		return nil, fmt.Errorf("get item fields: %w", err)
	}
	if item == nil {
		return &domain.ItemDetails{}, nil
	}
	return &domain.ItemDetails{
		ItemName:    item.ItemName,
		UOM:         item.StockUOM,
		Description: item.Description,
		Image:       item.Image,
		ItemGroup:   item.ItemGroup,
		Brand:       item.Brand,
	}, nil
}
