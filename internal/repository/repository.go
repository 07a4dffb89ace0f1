package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/ddlstore/internal/bulk"
	"github.com/vvka-141/ddlstore/internal/db/manager"
	"github.com/vvka-141/ddlstore/internal/params"
	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/internal/retry"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// DefaultDisabledColumn is the soft-delete flag set by Disable.
const DefaultDisabledColumn = "isDisabled"

// Options describes the table behind a Repository.
type Options struct {
	// DDL is the CREATE TABLE script. Required.
	DDL string

	// Table overrides the table named by DDL.
	Table pgx.Identifier

	// Find is the SELECT used for reads. Default: SELECT * FROM <table>
	Find string

	// IDColumn is the identity column. Default: the IDENTITY column, else <table>Id.
	// It is matched against the parsed columns ignoring case.
	IDColumn string

	// Skip lists columns left to the server on insert and update.
	// Nil means ddlstore.DefaultSkipNames.
	Skip []string

	// DisabledColumn is the flag set by Disable. Default: DefaultDisabledColumn
	DisabledColumn string

	// Retry runs reads. Default: PostgreSQL classifier with exponential backoff.
	Retry *retry.Executor
}

// faultReporter is implemented by *db.Manager.
type faultReporter interface {
	HandleError(err error)
}

// Repository is the data-access surface of one table.
//
// Thread-Safety: Safe for concurrent use. Inserts are serialized so a bulk
// read-back never picks up rows written by another insert.
type Repository struct {
	insertMu sync.Mutex

	acquirer bulk.Acquirer
	loader   *bulk.Loader
	tables   *manager.Manager
	retry    *retry.Executor
	logger   ddlstore.Logger

	table    pgx.Identifier
	find     string
	idColumn string
	disabled string
	skip     []string

	// full keeps identity columns. writable drops them and the skipped columns.
	full     schema.Schema
	writable schema.Schema
}

// New parses opts.DDL and builds a Repository over the acquirer's connection.
func New(acquirer bulk.Acquirer, opts Options, logger ddlstore.Logger) (*Repository, error) {
	if acquirer == nil {
		panic("acquirer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	full, err := schema.Parse(opts.DDL, schema.WithIdentity(true))
	if err != nil {
		return nil, err
	}
	writable, err := schema.Parse(opts.DDL)
	if err != nil {
		return nil, err
	}

	table := opts.Table
	if len(table) == 0 {
		parts, err := schema.ParseTableName(opts.DDL)
		if err != nil {
			return nil, err
		}
		table = pgx.Identifier(parts)
	}
	base := table[len(table)-1]

	r := &Repository{
		acquirer: acquirer,
		loader:   bulk.NewLoader(acquirer, logger),
		tables:   manager.New(),
		retry:    opts.Retry,
		logger:   logger,
		table:    table,
		find:     opts.Find,
		idColumn: opts.IDColumn,
		disabled: opts.DisabledColumn,
		skip:     opts.Skip,
		full:     full,
	}
	if r.find == "" {
		r.find = "SELECT * FROM " + table.Sanitize()
	}
	if r.idColumn == "" {
		if col, ok := full.Identity(); ok {
			r.idColumn = col.Name
		} else {
			r.idColumn = base + "Id"
		}
	}
	if col, ok := full.Column(r.idColumn); ok {
		r.idColumn = col.Name
	}
	if r.disabled == "" {
		r.disabled = DefaultDisabledColumn
	}
	if r.skip == nil {
		r.skip = append([]string(nil), ddlstore.DefaultSkipNames...)
	}
	r.writable = writable.Without(r.skip...)
	if r.retry == nil {
		r.retry = retry.NewDefaultExecutor()
	}
	r.retry = r.retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		r.logger.Verbose("%s: retry %d in %v after: %v", r.table.Sanitize(), attempt+1, delay, err)
	})
	return r, nil
}

// Table returns the table the repository reads and writes.
func (r *Repository) Table() pgx.Identifier { return r.table }

// Schema returns the parsed columns, identity columns included.
func (r *Repository) Schema() schema.Schema { return r.full }

// IDColumn returns the identity column name.
func (r *Repository) IDColumn() string { return r.idColumn }

// Initialize creates the table from the parsed schema unless it already exists.
func (r *Repository) Initialize(ctx context.Context) error {
	id := requestID()
	return r.retry.Execute(ctx, func(ctx context.Context) error {
		conn, err := r.acquirer.Conn(ctx)
		if err != nil {
			return err
		}
		exists, err := r.tables.TableExists(ctx, conn, r.table)
		if err != nil {
			return r.fail(id, "initialize", err)
		}
		if exists {
			r.logger.Verbose("%s: table %s already exists", id, r.table.Sanitize())
			return nil
		}
		if err := r.tables.CreateTable(ctx, conn, r.table, r.full); err != nil {
			return r.fail(id, "initialize", err)
		}
		r.logger.Info("%s table initialized.", r.table.Sanitize())
		return nil
	})
}

// Find returns the rows of page, reshaped into nested maps.
func (r *Repository) Find(ctx context.Context, page Page) ([]map[string]any, error) {
	id := requestID()
	query := page.Apply(r.find, pgx.Identifier{r.idColumn}.Sanitize())
	r.logger.Verbose("%s: %s", id, query)

	return retry.Do(ctx, r.retry, func(ctx context.Context) ([]map[string]any, error) {
		rows, err := r.query(ctx, query)
		if err != nil {
			return nil, r.fail(id, "find", err)
		}
		return rows, nil
	})
}

// FindByID returns the row whose identity column equals key.
// It returns ddlstore.ErrNotFound when there is none.
func (r *Repository) FindByID(ctx context.Context, key any) (map[string]any, error) {
	id := requestID()
	query := fmt.Sprintf("SELECT * FROM (%s) AS t WHERE %s = $1",
		trimStatement(r.find), pgx.Identifier{r.idColumn}.Sanitize())

	return retry.Do(ctx, r.retry, func(ctx context.Context) (map[string]any, error) {
		rows, err := r.query(ctx, query, r.keyArg(key))
		if err != nil {
			return nil, r.fail(id, "find by id", err)
		}
		return first(rows, r.table, key)
	})
}

// Create inserts rec and returns the stored row. Columns with a DEFAULT that
// rec does not carry are left to the server.
func (r *Repository) Create(ctx context.Context, rec record.Record) (map[string]any, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: cannot create %s: no record provided", ddlstore.ErrInvalidConfig, r.table.Sanitize())
	}
	if r.writable.IsEmpty() {
		return nil, fmt.Errorf("%s: %w", r.table.Sanitize(), ddlstore.ErrEmptySchema)
	}
	id := requestID()
	set := params.Bind(r.writable, nil, rec)
	for _, col := range r.writable.Columns() {
		if _, ok := rec.Get(col.Name); !ok && col.HasDefault() {
			delete(set, col.Name)
		}
	}

	r.insertMu.Lock()
	rows, err := r.query(ctx, set.InsertSQL(r.table), coerced(set)...)
	r.insertMu.Unlock()
	if err != nil {
		return nil, r.fail(id, "create", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: created %s row was not returned", ddlstore.ErrNotFound, r.table.Sanitize())
	}
	r.logger.Verbose("%s: created row in %s", id, r.table.Sanitize())
	return rows[0], nil
}

// Update writes the fields present in rec to the row identified by key and
// returns the updated row. Columns rec does not carry are left untouched.
func (r *Repository) Update(ctx context.Context, key any, rec record.Record) (map[string]any, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: cannot update %s: no record provided", ddlstore.ErrInvalidConfig, r.table.Sanitize())
	}
	id := requestID()

	set := params.Set{}
	for name, v := range params.Bind(r.writable, nil, rec) {
		if _, ok := rec.Get(name); ok && name != r.idColumn {
			set[name] = v
		}
	}
	keyValue := params.Value{Value: key}
	if col, ok := r.full.Column(r.idColumn); ok {
		keyValue.Type = col.Type
	}
	set[r.idColumn] = keyValue

	query, err := set.UpdateSQL(r.table, r.idColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: update %s: %w", ddlstore.ErrInvalidConfig, r.table.Sanitize(), err)
	}

	rows, err := r.query(ctx, query, coerced(set)...)
	if err != nil {
		return nil, r.fail(id, "update", err)
	}
	return first(rows, r.table, key)
}

// Disable sets the disabled flag of the row identified by key.
func (r *Repository) Disable(ctx context.Context, key any) error {
	col, ok := r.full.Column(r.disabled)
	if !ok {
		return fmt.Errorf("%w: %s has no %q column", ddlstore.ErrInvalidConfig, r.table.Sanitize(), r.disabled)
	}
	id := requestID()

	conn, err := r.acquirer.Conn(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = true WHERE %s = $1",
		r.table.Sanitize(), pgx.Identifier{col.Name}.Sanitize(), pgx.Identifier{r.idColumn}.Sanitize())
	tag, err := conn.Exec(ctx, query, r.keyArg(key))
	if err != nil {
		return r.fail(id, "disable", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s row %v", ddlstore.ErrNotFound, r.table.Sanitize(), key)
	}
	return nil
}

// CreateMany bulk-inserts recs and returns the stored rows in input order.
// Calls on one Repository run one at a time.
func (r *Repository) CreateMany(ctx context.Context, recs []record.Record) ([]map[string]any, error) {
	r.insertMu.Lock()
	defer r.insertMu.Unlock()
	return r.loader.InsertMany(ctx, bulk.Request{
		Schema:         r.writable,
		Table:          r.table,
		FindQuery:      r.find,
		IdentityColumn: r.idColumn,
	}, recs)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	conn, err := r.acquirer.Conn(ctx)
	if err != nil {
		return nil, err
	}
	res, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	rows, err := pgx.CollectRows(res, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	return record.NestAll(rows), nil
}

// fail logs err, reports connection-level faults to the acquirer and wraps
// statement errors.
func (r *Repository) fail(id, op string, err error) error {
	r.logger.Error("%s: could not %s %s: %v", id, op, r.table.Sanitize(), err)
	if isConnectionFault(err) {
		if fr, ok := r.acquirer.(faultReporter); ok {
			fr.HandleError(err)
		}
	}
	if errors.Is(err, ddlstore.ErrStatementFailed) || errors.Is(err, ddlstore.ErrConnectionFailed) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %w", ddlstore.ErrStatementFailed, op, r.table.Sanitize(), err)
}

func isConnectionFault(err error) bool {
	if errors.Is(err, ddlstore.ErrConnectionFailed) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || pgconn.SafeToRetry(err)
}

// keyArg normalizes an identity value, such as "42" from a command line, to
// the identity column's type.
func (r *Repository) keyArg(key any) any {
	if col, ok := r.full.Column(r.idColumn); ok {
		return bulk.Coerce(key, col.Type)
	}
	return key
}

// coerced returns the set's positional arguments normalized the way the bulk
// loader normalizes streamed values.
func coerced(set params.Set) []any {
	names := set.Names()
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = bulk.Coerce(set[n].Value, set[n].Type)
	}
	return args
}

func first(rows []map[string]any, table pgx.Identifier, key any) (map[string]any, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s row %v", ddlstore.ErrNotFound, table.Sanitize(), key)
	}
	return rows[0], nil
}

func requestID() string {
	return uuid.New().String()[:8]
}
