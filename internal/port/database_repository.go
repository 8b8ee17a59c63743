package port

import (
	"context"

	"github.com/rl1809/shop-bridge/internal/core/domain"
)

type InventoryRepository interface {
	// ListAll returns every stored item ordered by id.
	ListAll(ctx context.Context) ([]domain.InventoryItem, error)

	// GetByID returns nil, nil when no item has the given id
	GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error)

	// Create inserts and commits a new item, sets item.ID and returns it.
	// item.Price is rounded to domain.PriceScale places, as stored.
	Create(ctx context.Context, item *domain.InventoryItem) (int64, error)

	// Update commits the current field values of a previously loaded item,
	// price rounded as in Create
	Update(ctx context.Context, item domain.InventoryItem) error

	// Delete removes the item by identity and commits
	Delete(ctx context.Context, item domain.InventoryItem) error
}
