package bulk

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// Acquirer hands out the shared store connection on demand.
// *db.Manager implements it.
type Acquirer interface {
	Conn(ctx context.Context) (ddlstore.DBConnection, error)
}

// Request describes one bulk insert.
type Request struct {
	// Schema lists the columns streamed, in order. Identity and server-managed
	// columns are normally excluded by the parser.
	Schema schema.Schema

	// Table is the destination table.
	Table pgx.Identifier

	// FindQuery selects rows of Table; the read-back appends ordering and a limit.
	FindQuery string

	// IdentityColumn orders the read-back, newest first.
	IdentityColumn string

	// Reshape is applied to each row read back. Defaults to record.Nest.
	Reshape func(map[string]any) map[string]any
}

func (r Request) validate() error {
	if r.Schema.IsEmpty() {
		return ddlstore.ErrEmptySchema
	}
	if len(r.Table) == 0 {
		return fmt.Errorf("%w: bulk request has no table", ddlstore.ErrInvalidConfig)
	}
	if strings.TrimSpace(r.FindQuery) == "" {
		return fmt.Errorf("%w: bulk request has no find query", ddlstore.ErrInvalidConfig)
	}
	if r.IdentityColumn == "" {
		return fmt.Errorf("%w: bulk request has no identity column", ddlstore.ErrInvalidConfig)
	}
	return nil
}

// Loader performs bulk inserts through connections from an Acquirer.
//
// Thread-Safety: Safe for concurrent use; it holds no per-call state.
type Loader struct {
	acquirer Acquirer
	logger   ddlstore.Logger
}

// NewLoader creates a Loader.
func NewLoader(acquirer Acquirer, logger ddlstore.Logger) *Loader {
	if acquirer == nil {
		panic("acquirer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{acquirer: acquirer, logger: logger}
}

// InsertMany streams records into the table and returns the inserted rows in
// input order. Empty input returns an empty result without touching the store.
// The read-back takes the newest rows, so inserts into the same table must not
// run alongside it.
func (l *Loader) InsertMany(ctx context.Context, req Request, records []record.Record) ([]map[string]any, error) {
	if len(records) == 0 {
		return []map[string]any{}, nil
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	batch := uuid.New().String()
	cols := req.Schema.Columns()
	names := req.Schema.Names()
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(cols))
		for j, col := range cols {
			var v any
			if rec != nil {
				v, _ = rec.Get(col.Name)
			}
			row[j] = Coerce(v, col.Type)
		}
		rows[i] = row
	}

	conn, err := l.acquirer.Conn(ctx)
	if err != nil {
		return nil, err
	}

	table := req.Table.Sanitize()
	l.logger.Verbose("bulk %s: copying %d rows into %s", batch, len(rows), table)

	count, err := conn.CopyFrom(ctx, req.Table, names, pgx.CopyFromRows(rows))
	if err != nil {
		l.logger.Error("bulk %s: copy into %s failed: %v", batch, table, err)
		return nil, fmt.Errorf("%w: copy into %s: %w", ddlstore.ErrStatementFailed, table, err)
	}
	l.logger.Verbose("bulk %s: copied %d rows", batch, count)

	if count == 0 {
		return []map[string]any{}, nil
	}

	query := ReadBackQuery(req.FindQuery, count, req.IdentityColumn)
	res, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: read back %s: %w", ddlstore.ErrStatementFailed, table, err)
	}
	inserted, err := pgx.CollectRows(res, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("%w: read back %s: %w", ddlstore.ErrStatementFailed, table, err)
	}

	slices.Reverse(inserted)

	reshape := req.Reshape
	if reshape == nil {
		reshape = record.Nest
	}
	for i := range inserted {
		inserted[i] = reshape(inserted[i])
	}
	return inserted, nil
}

// InsertOne inserts a single record and returns its materialized row.
func (l *Loader) InsertOne(ctx context.Context, req Request, rec record.Record) (map[string]any, error) {
	rows, err := l.InsertMany(ctx, req, []record.Record{rec})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: inserted row was not read back", ddlstore.ErrNotFound)
	}
	return rows[len(rows)-1], nil
}

// ReadBackQuery returns find restricted to the n newest rows by idColumn.
func ReadBackQuery(find string, n int64, idColumn string) string {
	find = strings.TrimRight(strings.TrimSpace(find), ";")
	find = strings.TrimSpace(find)
	return fmt.Sprintf("%s ORDER BY %s DESC LIMIT %d", find, pgx.Identifier{idColumn}.Sanitize(), n)
}
