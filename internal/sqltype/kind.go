package sqltype

import "strings"

// Kind is a closed enumeration of the column types the directory understands.
type Kind int

const (
	Invalid Kind = iota
	BigInt
	Int
	SmallInt
	TinyInt
	Bit
	Decimal
	Numeric
	Money
	SmallMoney
	Float
	Real
	Char
	NChar
	VarChar
	NVarChar
	Text
	NText
	XML
	Binary
	VarBinary
	Image
	Date
	Time
	DateTime
	DateTime2
	SmallDateTime
	DateTimeOffset
	UniqueIdentifier
	JSON
	JSONB
)

type kindInfo struct {
	name   string
	pgType string
	sized  bool
}

var kinds = [...]kindInfo{
	Invalid:          {name: "INVALID"},
	BigInt:           {name: "BIGINT", pgType: "bigint"},
	Int:              {name: "INT", pgType: "integer"},
	SmallInt:         {name: "SMALLINT", pgType: "smallint"},
	TinyInt:          {name: "TINYINT", pgType: "smallint"},
	Bit:              {name: "BIT", pgType: "boolean"},
	Decimal:          {name: "DECIMAL", pgType: "numeric", sized: true},
	Numeric:          {name: "NUMERIC", pgType: "numeric", sized: true},
	Money:            {name: "MONEY", pgType: "numeric(19,4)"},
	SmallMoney:       {name: "SMALLMONEY", pgType: "numeric(10,4)"},
	Float:            {name: "FLOAT", pgType: "double precision"},
	Real:             {name: "REAL", pgType: "real"},
	Char:             {name: "CHAR", pgType: "char", sized: true},
	NChar:            {name: "NCHAR", pgType: "char", sized: true},
	VarChar:          {name: "VARCHAR", pgType: "varchar", sized: true},
	NVarChar:         {name: "NVARCHAR", pgType: "varchar", sized: true},
	Text:             {name: "TEXT", pgType: "text"},
	NText:            {name: "NTEXT", pgType: "text"},
	XML:              {name: "XML", pgType: "xml"},
	Binary:           {name: "BINARY", pgType: "bytea", sized: true},
	VarBinary:        {name: "VARBINARY", pgType: "bytea", sized: true},
	Image:            {name: "IMAGE", pgType: "bytea"},
	Date:             {name: "DATE", pgType: "date"},
	Time:             {name: "TIME", pgType: "time", sized: true},
	DateTime:         {name: "DATETIME", pgType: "timestamp"},
	DateTime2:        {name: "DATETIME2", pgType: "timestamp", sized: true},
	SmallDateTime:    {name: "SMALLDATETIME", pgType: "timestamp(0)"},
	DateTimeOffset:   {name: "DATETIMEOFFSET", pgType: "timestamptz", sized: true},
	UniqueIdentifier: {name: "UNIQUEIDENTIFIER", pgType: "uuid"},
	JSON:             {name: "JSON", pgType: "json"},
	JSONB:            {name: "JSONB", pgType: "jsonb"},
}

// aliases maps every accepted spelling to its kind. Keys are upper case.
var aliases = map[string]Kind{
	"BIGINT":           BigInt,
	"INT8":             BigInt,
	"INT":              Int,
	"INTEGER":          Int,
	"INT4":             Int,
	"SMALLINT":         SmallInt,
	"INT2":             SmallInt,
	"TINYINT":          TinyInt,
	"BIT":              Bit,
	"BOOLEAN":          Bit,
	"BOOL":             Bit,
	"DECIMAL":          Decimal,
	"NUMERIC":          Numeric,
	"MONEY":            Money,
	"SMALLMONEY":       SmallMoney,
	"FLOAT":            Float,
	"FLOAT8":           Float,
	"DOUBLE":           Float,
	"REAL":             Real,
	"FLOAT4":           Real,
	"CHAR":             Char,
	"CHARACTER":        Char,
	"NCHAR":            NChar,
	"VARCHAR":          VarChar,
	"NVARCHAR":         NVarChar,
	"TEXT":             Text,
	"NTEXT":            NText,
	"XML":              XML,
	"BINARY":           Binary,
	"VARBINARY":        VarBinary,
	"IMAGE":            Image,
	"BYTEA":            Image,
	"DATE":             Date,
	"TIME":             Time,
	"DATETIME":         DateTime,
	"TIMESTAMP":        DateTime,
	"DATETIME2":        DateTime2,
	"SMALLDATETIME":    SmallDateTime,
	"DATETIMEOFFSET":   DateTimeOffset,
	"TIMESTAMPTZ":      DateTimeOffset,
	"UNIQUEIDENTIFIER": UniqueIdentifier,
	"UUID":             UniqueIdentifier,
	"JSON":             JSON,
	"JSONB":            JSONB,
}

// Lookup returns the kind registered under name, ignoring case.
func Lookup(name string) (Kind, bool) {
	k, ok := aliases[strings.ToUpper(strings.TrimSpace(name))]
	return k, ok
}

// String returns the canonical upper-case type name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[Invalid].name
	}
	return kinds[k].name
}

// Sized reports whether the kind accepts a length or precision argument.
func (k Kind) Sized() bool {
	return k.valid() && kinds[k].sized
}

// IntegerLike reports whether values bound to this kind are parsed as integers.
func (k Kind) IntegerLike() bool {
	switch k {
	case BigInt, Int, SmallInt, TinyInt:
		return true
	}
	return false
}

func (k Kind) valid() bool {
	return k > Invalid && int(k) < len(kinds)
}
