package storage

import (
	"context"
	"database/sql"
	"fmt"

	"payment-gateway/internal/config"
	"payment-gateway/internal/logger"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// OpenPostgres opens a pooled lib/pq connection wrapped in bun.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	sqldb, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "PostgreSQL connection established")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// NewPostgreSQLStore connects to PostgreSQL. The payments table comes from
// the SQL migrations.
func NewPostgreSQLStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*BunStore, error) {
	db, err := OpenPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return NewBunStore(db, log), nil
}
