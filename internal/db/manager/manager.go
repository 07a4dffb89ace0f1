package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

const queryTableExists = "SELECT to_regclass($1) IS NOT NULL"

// Manager implements table lifecycle operations using the DBConnection abstraction.
type Manager struct{}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{}
}

// TableExists checks if a table exists.
func (m *Manager) TableExists(ctx context.Context, conn ddlstore.DBConnection, table pgx.Identifier) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryTableExists, table.Sanitize()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// CreateTable creates table, and its schema when qualified, with the columns of s.
// See CreateTableSQL for how columns are rendered.
func (m *Manager) CreateTable(ctx context.Context, conn ddlstore.DBConnection, table pgx.Identifier, s schema.Schema) error {
	query, err := CreateTableSQL(table, s)
	if err != nil {
		return err
	}

	if len(table) > 1 {
		ns := pgx.Identifier(table[:len(table)-1]).Sanitize()
		if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ns); err != nil {
			return fmt.Errorf("%w: failed to create schema %s: %w", ddlstore.ErrStatementFailed, ns, err)
		}
	}

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: failed to create table %s: %w", ddlstore.ErrStatementFailed, table.Sanitize(), err)
	}
	return nil
}

// DropTable drops table if it exists.
func (m *Manager) DropTable(ctx context.Context, conn ddlstore.DBConnection, table pgx.Identifier) error {
	if len(table) == 0 {
		return fmt.Errorf("table name is required: %w", ddlstore.ErrInvalidConfig)
	}
	query := "DROP TABLE IF EXISTS " + table.Sanitize()
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: failed to drop table %s: %w", ddlstore.ErrStatementFailed, table.Sanitize(), err)
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE IF NOT EXISTS statement for s.
//
// Identity columns become GENERATED BY DEFAULT AS IDENTITY primary keys.
// DEFAULT expressions are kept when PostgreSQL can evaluate them (literals
// and the common clock and uuid functions). A NOT NULL column whose default
// cannot be carried over is created nullable.
func CreateTableSQL(table pgx.Identifier, s schema.Schema) (string, error) {
	if len(table) == 0 {
		return "", fmt.Errorf("table name is required: %w", ddlstore.ErrInvalidConfig)
	}
	if s.IsEmpty() {
		return "", fmt.Errorf("table %s: %w", table.Sanitize(), ddlstore.ErrEmptySchema)
	}

	defs := make([]string, 0, s.Len())
	for _, col := range s.Columns() {
		pgType := col.Type.PostgresType()
		if pgType == "" {
			return "", fmt.Errorf("column %q: %w", col.Name, ddlstore.ErrUnknownType)
		}

		var b strings.Builder
		b.WriteString(pgx.Identifier{col.Name}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(pgType)
		if col.Identity {
			b.WriteString(" GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY")
			defs = append(defs, b.String())
			continue
		}

		def, ok := "", true
		if col.HasDefault() {
			def, ok = translateDefault(*col.Default, col.Type.Kind)
		}
		if !col.Nullable && ok {
			b.WriteString(" NOT NULL")
		}
		if def != "" {
			b.WriteString(" DEFAULT ")
			b.WriteString(def)
		}
		defs = append(defs, b.String())
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), strings.Join(defs, ", ")), nil
}
