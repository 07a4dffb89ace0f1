package testing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// Call records one statement sent to a FakeConn.
type Call struct {
	SQL  string
	Args []any
}

// FakeConn is a test double for ddlstore.DBConnection. Unset funcs succeed
// with empty results. Every statement is recorded.
type FakeConn struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) ddlstore.Row
	CopyFromFunc func(ctx context.Context, table pgx.Identifier, columns []string, rows [][]any) (int64, error)

	mu    sync.Mutex
	calls []Call
}

func (c *FakeConn) record(sql string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{SQL: sql, Args: args})
}

// Calls returns the statements seen so far.
func (c *FakeConn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

func (c *FakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.record(sql, args)
	if c.ExecFunc != nil {
		return c.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (c *FakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.record(sql, args)
	if c.QueryFunc != nil {
		return c.QueryFunc(ctx, sql, args...)
	}
	return NewRows(nil), nil
}

func (c *FakeConn) QueryRow(ctx context.Context, sql string, args ...any) ddlstore.Row {
	c.record(sql, args)
	if c.QueryRowFunc != nil {
		return c.QueryRowFunc(ctx, sql, args...)
	}
	return &FakeRow{Err: pgx.ErrNoRows}
}

// CopyFrom drains src and hands the rows to CopyFromFunc. Without a func it
// reports every row as written.
func (c *FakeConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	var rows [][]any
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, vals)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	c.record("COPY "+table.Sanitize(), []any{columns, rows})
	if c.CopyFromFunc != nil {
		return c.CopyFromFunc(ctx, table, columns, rows)
	}
	return int64(len(rows)), nil
}

var _ ddlstore.DBConnection = (*FakeConn)(nil)

// FakeRow is a test double for ddlstore.Row. Values are assigned to
// destinations of matching pointer type.
type FakeRow struct {
	Values []any
	Err    error
}

func (r *FakeRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	if len(dest) != len(r.Values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.Values))
	}
	for i, d := range dest {
		if err := assign(d, r.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, v any) error {
	switch d := dest.(type) {
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("scan: cannot assign %T to *bool", v)
		}
		*d = b
	case *int64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("scan: cannot assign %T to *int64", v)
		}
		*d = n
	case *string:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("scan: cannot assign %T to *string", v)
		}
		*d = s
	case *any:
		*d = v
	default:
		return fmt.Errorf("scan: unsupported destination %T", dest)
	}
	return nil
}

// Rows is an in-memory pgx.Rows. Each row is a column-name to value map;
// Columns fixes the field order.
type Rows struct {
	Columns []string
	Data    []map[string]any
	Failure error

	pos    int
	closed bool
}

// NewRows builds Rows over data. Field order is cols, or the first row's keys
// sorted when cols is empty.
func NewRows(data []map[string]any, cols ...string) *Rows {
	if len(cols) == 0 && len(data) > 0 {
		for k := range data[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	return &Rows{Columns: cols, Data: data}
}

func (r *Rows) Close()                        { r.closed = true }
func (r *Rows) Err() error                    { return r.Failure }
func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) RawValues() [][]byte           { return nil }
func (r *Rows) Conn() *pgx.Conn               { return nil }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.Columns))
	for i, c := range r.Columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *Rows) Next() bool {
	if r.closed || r.Failure != nil || r.pos >= len(r.Data) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *Rows) current() (map[string]any, error) {
	if r.pos == 0 || r.pos > len(r.Data) {
		return nil, errors.New("rows: no current row")
	}
	return r.Data[r.pos-1], nil
}

func (r *Rows) Values() ([]any, error) {
	row, err := r.current()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(r.Columns))
	for i, c := range r.Columns {
		vals[i] = row[c]
	}
	return vals, nil
}

func (r *Rows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	vals, err := r.Values()
	if err != nil {
		return err
	}
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, d := range dest {
		if err := assign(d, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

var _ pgx.Rows = (*Rows)(nil)
