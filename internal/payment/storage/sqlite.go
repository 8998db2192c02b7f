package storage

import (
	"context"
	"database/sql"
	"fmt"

	"payment-gateway/internal/logger"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewSQLiteStore opens a sqlite database at dsn and creates the schema.
func NewSQLiteStore(ctx context.Context, dsn string, log *logger.Logger) (*BunStore, error) {
	log.LogDatabase("CONNECT", "sqlite", fmt.Sprintf("Opening SQLite database %s", dsn))

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	sqldb.SetMaxOpenConns(1)

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()), log)
	if err := store.CreateSchema(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}
