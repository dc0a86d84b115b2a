package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// Config carries the Postgres connection settings. An empty DSN means
// the process runs on the in-memory repositories instead.
type Config struct {
	DSN          string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"8"`
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database dsn is empty", contractx.ErrConfiguration)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// CreateSchema creates the tables used by the repositories if they do
// not exist yet. Safe to call on every startup.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*CustomerModel)(nil),
		(*OrderModel)(nil),
		(*ConversationModel)(nil),
		(*ProductModel)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
