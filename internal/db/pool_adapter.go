package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// PoolAdapter is the ddlstore.DBConnection handed out by Manager. Each call
// borrows a pooled connection for its own duration, so one adapter serves
// any number of goroutines.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (a *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.pool.Exec(ctx, sql, args...)
}

func (a *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.pool.Query(ctx, sql, args...)
}

func (a *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) ddlstore.Row {
	return a.pool.QueryRow(ctx, sql, args...)
}

func (a *PoolAdapter) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return a.pool.CopyFrom(ctx, table, columns, src)
}

var _ ddlstore.DBConnection = (*PoolAdapter)(nil)
