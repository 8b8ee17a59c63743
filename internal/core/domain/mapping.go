package domain

// NewInventoryItem builds an unsaved item from a create request.
func NewInventoryItem(req CreateItemRequest) InventoryItem {
	return InventoryItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
}

// View renders the item for clients.
func (i InventoryItem) View() ItemView {
	return ItemView{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
	}
}

// UpdateRequest projects the item into the shape patches are applied to.
func (i InventoryItem) UpdateRequest() UpdateItemRequest {
	return UpdateItemRequest{
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
	}
}

// Apply overwrites every field from req. ID is left untouched.
func (i *InventoryItem) Apply(req UpdateItemRequest) {
	i.Name = req.Name
	i.Description = req.Description
	i.Price = req.Price
}
