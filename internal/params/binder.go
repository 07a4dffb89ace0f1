package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/internal/sqltype"
)

// Value is one bound parameter.
type Value struct {
	Type  sqltype.Resolved
	Value any
}

// Set maps column names to bound parameters.
type Set map[string]Value

// Bind pairs every column of s that is not in excluded with the record's value.
// Excluded names match exactly. A nil record binds every column to nil.
func Bind(s schema.Schema, excluded []string, rec record.Record) Set {
	skip := make(map[string]struct{}, len(excluded))
	for _, n := range excluded {
		skip[n] = struct{}{}
	}

	set := make(Set, s.Len())
	for _, col := range s.Columns() {
		if _, ok := skip[col.Name]; ok {
			continue
		}
		var v any
		if rec != nil {
			v, _ = rec.Get(col.Name)
		}
		set[col.Name] = Value{Type: col.Type, Value: v}
	}
	return set
}

// Names returns the bound column names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NamedArgs returns the set as pgx named arguments for @name placeholders.
func (s Set) NamedArgs() pgx.NamedArgs {
	args := make(pgx.NamedArgs, len(s))
	for n, v := range s {
		args[n] = v.Value
	}
	return args
}

// Positional returns the values in Names() order.
func (s Set) Positional() []any {
	names := s.Names()
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = s[n].Value
	}
	return args
}

// InsertSQL renders an INSERT for the set with typed positional placeholders.
// An empty set inserts DEFAULT VALUES.
// Arguments are Positional().
func (s Set) InsertSQL(table pgx.Identifier) string {
	if len(s) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", table.Sanitize())
	}
	names := s.Names()
	cols := make([]string, len(names))
	vals := make([]string, len(names))
	for i, n := range names {
		cols[i] = pgx.Identifier{n}.Sanitize()
		vals[i] = s.placeholder(i+1, n)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table.Sanitize(), strings.Join(cols, ", "), strings.Join(vals, ", "))
}

// UpdateSQL renders an UPDATE of every bound column except key, filtered by
// key. Arguments are Positional(); key must be bound.
func (s Set) UpdateSQL(table pgx.Identifier, key string) (string, error) {
	if _, ok := s[key]; !ok {
		return "", fmt.Errorf("key column %q is not bound", key)
	}

	var assigns []string
	where := ""
	for i, n := range s.Names() {
		expr := s.placeholder(i+1, n)
		if n == key {
			where = fmt.Sprintf("%s = %s", pgx.Identifier{n}.Sanitize(), expr)
			continue
		}
		assigns = append(assigns, fmt.Sprintf("%s = %s", pgx.Identifier{n}.Sanitize(), expr))
	}
	if len(assigns) == 0 {
		return "", fmt.Errorf("nothing to update besides key column %q", key)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING *",
		table.Sanitize(), strings.Join(assigns, ", "), where), nil
}

func (s Set) placeholder(pos int, name string) string {
	if pgType := s[name].Type.PostgresType(); pgType != "" {
		return fmt.Sprintf("$%d::%s", pos, pgType)
	}
	return fmt.Sprintf("$%d", pos)
}
