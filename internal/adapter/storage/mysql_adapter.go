package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/shop-bridge/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, price
		FROM inventory_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory items: %w", err)
	}

	return items, nil
}

func (m *MySQLAdapter) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, price
		FROM inventory_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Price)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}

	return &item, nil
}

func (m *MySQLAdapter) Create(ctx context.Context, item *domain.InventoryItem) (int64, error) {
	item.Price = domain.NormalizePrice(item.Price)

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_items (name, description, price)
		VALUES (?, ?, ?)`,
		item.Name, item.Description, item.Price,
	)
	if err != nil {
		return 0, fmt.Errorf("insert inventory item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	item.ID = id
	return id, nil
}

// Update writes only the row identified by item.ID. A row whose values did not
// change reports zero affected rows in MySQL, so RowsAffected is not checked.
func (m *MySQLAdapter) Update(ctx context.Context, item domain.InventoryItem) error {
	item.Price = domain.NormalizePrice(item.Price)

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, description = ?, price = ?
		WHERE id = ?`,
		item.Name, item.Description, item.Price, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, item domain.InventoryItem) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, item.ID); err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
