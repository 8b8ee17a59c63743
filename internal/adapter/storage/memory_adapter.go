package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/rl1809/shop-bridge/internal/core/domain"
)

// MemoryAdapter keeps items in process memory. It is meant for local runs and
// tests; data is lost on restart.
type MemoryAdapter struct {
	mu     sync.RWMutex
	items  map[int64]domain.InventoryItem
	nextID int64
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{items: make(map[int64]domain.InventoryItem)}
}

func (m *MemoryAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryAdapter) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryAdapter) Create(ctx context.Context, item *domain.InventoryItem) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	item.ID = m.nextID
	item.Price = domain.NormalizePrice(item.Price)
	m.items[item.ID] = *item
	return item.ID, nil
}

func (m *MemoryAdapter) Update(ctx context.Context, item domain.InventoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; ok {
		item.Price = domain.NormalizePrice(item.Price)
		m.items[item.ID] = item
	}
	return nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, item domain.InventoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, item.ID)
	return nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}
