//go:build integration

package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("shopbridge"),
		tcmysql.WithUsername("shopbridge"),
		tcmysql.WithPassword("shopbridge"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, Migrate(ctx, db, DialectMySQL))
	return db
}

func TestMySQLAdapter_Contract(t *testing.T) {
	db := startMySQL(t)
	testRepositoryContract(t, NewMySQLAdapter(db))
}

func TestMySQLAdapter_MigrateIsIdempotent(t *testing.T) {
	db := startMySQL(t)
	require.NoError(t, Migrate(context.Background(), db, DialectMySQL))
}

func TestMySQLAdapter_CancelledContext(t *testing.T) {
	db := startMySQL(t)
	adapter := NewMySQLAdapter(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.ListAll(ctx)
	require.Error(t, err)
}
