package domain

import "math"

// Field limits. The validate tags on the request types below repeat these
// values and must be changed together with them.
const (
	MaxTextLength = 250
	MinPrice      = 1
	MaxPrice      = 9999999999

	// PriceScale is the number of decimal places storage keeps for a price.
	PriceScale = 2
)

// NormalizePrice rounds p to PriceScale decimal places, the precision of the
// price column.
func NormalizePrice(p float64) float64 {
	factor := math.Pow10(PriceScale)
	return math.Round(p*factor) / factor
}

// InventoryItem is the persisted inventory record. ID is assigned by storage.
type InventoryItem struct {
	ID          int64
	Name        string
	Description string
	Price       float64
}

// CreateItemRequest is the body accepted when creating an item.
type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=250"`
	Description string  `json:"description" validate:"required,max=250"`
	Price       float64 `json:"price" validate:"gte=1,lte=9999999999,cents"`
}

// UpdateItemRequest is the shape used by full updates and patched in partial updates.
type UpdateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=250"`
	Description string  `json:"description" validate:"required,max=250"`
	Price       float64 `json:"price" validate:"gte=1,lte=9999999999,cents"`
}

// ItemView is the read representation returned to clients.
type ItemView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}
