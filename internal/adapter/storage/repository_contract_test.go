package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shop-bridge/internal/core/domain"
	"github.com/rl1809/shop-bridge/internal/port"
)

// testRepositoryContract exercises the behaviour every InventoryRepository
// must share. repo is expected to start empty.
func testRepositoryContract(t *testing.T, repo port.InventoryRepository) {
	ctx := context.Background()

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	missing, err := repo.GetByID(ctx, 424242)
	require.NoError(t, err)
	assert.Nil(t, missing)

	widget := domain.InventoryItem{Name: "Widget", Description: "A widget", Price: 10}
	id, err := repo.Create(ctx, &widget)
	require.NoError(t, err)
	require.NotZero(t, id)
	assert.Equal(t, id, widget.ID)

	gadget := domain.InventoryItem{Name: "Gadget", Description: "A gadget", Price: 9999999999}
	_, err = repo.Create(ctx, &gadget)
	require.NoError(t, err)
	assert.Greater(t, gadget.ID, widget.ID)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, widget, *got)

	got.Apply(domain.UpdateItemRequest{Name: "Widget2", Description: "A widget", Price: 20.5})
	require.NoError(t, repo.Update(ctx, *got))

	// Writing unchanged values must not fail
	require.NoError(t, repo.Update(ctx, *got))

	reloaded, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, domain.InventoryItem{ID: id, Name: "Widget2", Description: "A widget", Price: 20.5}, *reloaded)

	items, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, gadget, items[1])

	require.NoError(t, repo.Delete(ctx, *reloaded))

	gone, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)

	items, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.InventoryItem{gadget}, items)

	// Prices keep PriceScale decimal places; what Create reports is what is read back.
	fractional := domain.InventoryItem{Name: "Bolt", Description: "A bolt", Price: 1.999}
	_, err = repo.Create(ctx, &fractional)
	require.NoError(t, err)
	assert.Equal(t, 2.0, fractional.Price)

	stored, err := repo.GetByID(ctx, fractional.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, fractional, *stored)

	stored.Price = 3.456
	require.NoError(t, repo.Update(ctx, *stored))

	stored, err = repo.GetByID(ctx, fractional.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3.46, stored.Price)
}
