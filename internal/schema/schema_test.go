package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vvka-141/ddlstore/internal/sqltype"
)

func TestSchema_Without(t *testing.T) {
	s := New(
		Column{Name: "Email", Type: sqltype.MustResolve("VARCHAR", sqltype.Size(255))},
		Column{Name: "IsDisabled", Type: sqltype.MustResolve("BIT", sqltype.Param{})},
		Column{Name: "DateCreated", Type: sqltype.MustResolve("DATETIME2", sqltype.Param{})},
	)

	trimmed := s.Without("isdisabled", "DATECREATED")
	assert.Equal(t, []string{"Email"}, trimmed.Names())
	assert.Equal(t, 3, s.Len(), "original schema must not change")
	assert.True(t, s.Without().Equal(s))
}

func TestSchema_ColumnsReturnsCopy(t *testing.T) {
	s := New(Column{Name: "A"})
	cols := s.Columns()
	cols[0].Name = "B"
	assert.Equal(t, "A", s.At(0).Name)
}

func TestSchema_Lookup(t *testing.T) {
	s := New(Column{Name: "UserId", Identity: true}, Column{Name: "Email"})

	col, ok := s.Column("email")
	assert.True(t, ok)
	assert.Equal(t, "Email", col.Name)

	_, ok = s.Column("missing")
	assert.False(t, ok)

	id, ok := s.Identity()
	assert.True(t, ok)
	assert.Equal(t, "UserId", id.Name)

	assert.True(t, Schema{}.IsEmpty())
}

func TestSchema_EqualComparesDefaults(t *testing.T) {
	zero, one := "0", "1"
	a := New(Column{Name: "A", Default: &zero})
	b := New(Column{Name: "A", Default: &one})
	c := New(Column{Name: "A"})

	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, a.Equal(New(Column{Name: "A", Default: &zero})))
}
