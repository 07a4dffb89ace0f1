package ddlstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection is the part of a pgx pool that the table manager, the bulk
// loader and repositories use. Tests substitute fakes for it.
type DBConnection interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Query returns rows the caller must close.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow never returns nil; errors surface from Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom loads rows with the COPY protocol and reports how many were
	// written.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Row is the result of QueryRow. Scan returns pgx.ErrNoRows when the query
// matched nothing.
type Row interface {
	Scan(dest ...any) error
}
