package schema

import (
	"strings"

	"github.com/vvka-141/ddlstore/internal/sqltype"
)

// Column describes one parsed column.
type Column struct {
	Name     string
	Nullable bool
	Type     sqltype.Resolved
	// Default is the raw DEFAULT expression text; it is never evaluated.
	Default *string
	// Identity is only ever set when identity columns are kept.
	Identity bool
}

// HasDefault reports whether the column declared a DEFAULT clause.
func (c Column) HasDefault() bool {
	return c.Default != nil
}

// Schema is the ordered column list of one table. The zero value is an empty
// schema. A Schema is not modified after parsing; methods that filter return
// a new value.
type Schema struct {
	cols []Column
}

// New builds a Schema from columns in the given order.
func New(cols ...Column) Schema {
	out := make([]Column, len(cols))
	copy(out, cols)
	return Schema{cols: out}
}

// Columns returns a copy of the columns in declaration order.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.cols) }

// IsEmpty reports whether the schema has no usable columns.
func (s Schema) IsEmpty() bool { return len(s.cols) == 0 }

// At returns the i-th column.
func (s Schema) At(i int) Column { return s.cols[i] }

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name, ignoring case.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.cols {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Identity returns the identity column, if one was kept.
func (s Schema) Identity() (Column, bool) {
	for _, c := range s.cols {
		if c.Identity {
			return c, true
		}
	}
	return Column{}, false
}

// Without returns a schema minus the named columns, compared case-insensitively.
func (s Schema) Without(names ...string) Schema {
	if len(names) == 0 {
		return s
	}
	skip := newNameSet(names)
	kept := make([]Column, 0, len(s.cols))
	for _, c := range s.cols {
		if !skip.has(c.Name) {
			kept = append(kept, c)
		}
	}
	return Schema{cols: kept}
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.cols) != len(other.cols) {
		return false
	}
	for i := range s.cols {
		a, b := s.cols[i], other.cols[i]
		if a.Name != b.Name || a.Nullable != b.Nullable || a.Type != b.Type || a.Identity != b.Identity {
			return false
		}
		if (a.Default == nil) != (b.Default == nil) {
			return false
		}
		if a.Default != nil && *a.Default != *b.Default {
			return false
		}
	}
	return true
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

func (s nameSet) has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}
