package sqltype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		param    Param
		wantKind Kind
		wantStr  string
		wantPG   string
	}{
		{"fixed bigint", "BIGINT", Param{}, BigInt, "BIGINT", "bigint"},
		{"lower case", "bigint", Param{}, BigInt, "BIGINT", "bigint"},
		{"fixed ignores param", "BIT", Size(1), Bit, "BIT", "boolean"},
		{"sized varchar", "VARCHAR", Size(255), VarChar, "VARCHAR(255)", "varchar(255)"},
		{"nvarchar max", "NVarChar", MaxParam, NVarChar, "NVARCHAR(MAX)", "text"},
		{"varchar without size", "VARCHAR", Param{}, VarChar, "VARCHAR", "varchar"},
		{"varbinary max", "VARBINARY", MaxParam, VarBinary, "VARBINARY(MAX)", "bytea"},
		{"datetime2 precision capped", "DATETIME2", Size(7), DateTime2, "DATETIME2(7)", "timestamp(6)"},
		{"decimal precision", "DECIMAL", Size(18), Decimal, "DECIMAL(18)", "numeric(18)"},
		{"postgres alias", "timestamptz", Param{}, DateTimeOffset, "DATETIMEOFFSET", "timestamptz"},
		{"uuid alias", "UNIQUEIDENTIFIER", Param{}, UniqueIdentifier, "UNIQUEIDENTIFIER", "uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.typeName, tt.param)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantStr, got.String())
			assert.Equal(t, tt.wantPG, got.PostgresType())
		})
	}
}

func TestResolve_UnknownType(t *testing.T) {
	_, err := Resolve("GEOGRAPHY", Param{})
	require.Error(t, err)

	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "GEOGRAPHY", unknown.Name)
	assert.True(t, errors.Is(err, ddlstore.ErrUnknownType))
}

func TestMustResolve_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustResolve("NOPE", Param{}) })
	assert.NotPanics(t, func() { MustResolve("INT", Param{}) })
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		in     string
		want   Param
		wantOK bool
	}{
		{"255", Size(255), true},
		{" 50 ", Size(50), true},
		{"max", MaxParam, true},
		{"MAX", MaxParam, true},
		{"18,2", Param{}, false},
		{"[Age] > 0", Param{}, false},
		{"", Param{}, false},
		{"-1", Param{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseParam(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseParam(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseParam(%q)", tt.in)
	}
}

func TestKind_IntegerLike(t *testing.T) {
	for _, k := range []Kind{BigInt, Int, SmallInt, TinyInt} {
		assert.True(t, k.IntegerLike(), k.String())
	}
	for _, k := range []Kind{Bit, Decimal, VarChar, Float, DateTime, UniqueIdentifier} {
		assert.False(t, k.IntegerLike(), k.String())
	}
}

func TestKind_StringOutOfRange(t *testing.T) {
	assert.Equal(t, "INVALID", Kind(-3).String())
	assert.Equal(t, "INVALID", Kind(1000).String())
	assert.Equal(t, "", Resolved{}.PostgresType())
}

func TestLookup_EveryAliasHasPostgresType(t *testing.T) {
	for name, k := range aliases {
		r, err := Resolve(name, Param{})
		require.NoError(t, err, name)
		assert.Equal(t, k, r.Kind)
		assert.NotEmpty(t, r.PostgresType(), name)
	}
}
