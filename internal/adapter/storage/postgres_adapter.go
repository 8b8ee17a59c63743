package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/shop-bridge/internal/core/domain"
)

type PostgresAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresAdapter(pool *pgxpool.Pool) *PostgresAdapter {
	return &PostgresAdapter{pool: pool}
}

func (p *PostgresAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := p.pool.Query(ctx, `
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

func (p *PostgresAdapter) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, description, price
		FROM inventory_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Price)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}

	return &item, nil
}

func (p *PostgresAdapter) Create(ctx context.Context, item *domain.InventoryItem) (int64, error) {
	item.Price = domain.NormalizePrice(item.Price)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_items (name, description, price)
		VALUES ($1, $2, $3)
		RETURNING id`,
		item.Name, item.Description, item.Price,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert inventory item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	item.ID = id
	return id, nil
}

func (p *PostgresAdapter) Update(ctx context.Context, item domain.InventoryItem) error {
	item.Price = domain.NormalizePrice(item.Price)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE inventory_items
		SET name = $1, description = $2, price = $3
		WHERE id = $4`,
		item.Name, item.Description, item.Price, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) Delete(ctx context.Context, item domain.InventoryItem) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, item.ID); err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
