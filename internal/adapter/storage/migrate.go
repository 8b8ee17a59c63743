package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Migrate applies the embedded goose migrations for the dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	dir, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	var gooseDialect goose.Dialect
	switch dialect {
	case DialectMySQL:
		gooseDialect = goose.DialectMySQL
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	provider, err := goose.NewProvider(gooseDialect, db, dir)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
