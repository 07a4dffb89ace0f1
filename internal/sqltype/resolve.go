package sqltype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// Param is the optional size argument of a type: a length, a precision, or MAX.
// The zero value means no argument.
type Param struct {
	N   int
	Max bool
}

// Size returns a numeric Param.
func Size(n int) Param { return Param{N: n} }

// MaxParam is the MAX size marker, as in NVARCHAR(MAX).
var MaxParam = Param{Max: true}

// IsZero reports whether the Param carries no argument.
func (p Param) IsZero() bool {
	return !p.Max && p.N == 0
}

func (p Param) String() string {
	switch {
	case p.Max:
		return "MAX"
	case p.N > 0:
		return strconv.Itoa(p.N)
	}
	return ""
}

// ParseParam accepts the text between a type's parentheses. Only digits or the
// literal "max" (any case) qualify; anything else, such as "18,2" or a check
// expression, is not a size argument.
func ParseParam(s string) (Param, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Param{}, false
	}
	if strings.EqualFold(s, "max") {
		return MaxParam, true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Param{}, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Param{}, false
	}
	return Param{N: n}, true
}

// Resolved is a kind plus the size argument it was declared with.
type Resolved struct {
	Kind  Kind
	Sized bool
	Param Param
}

// UnknownTypeError reports a type name that has no directory entry.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown column type %q", e.Name)
}

func (e *UnknownTypeError) Unwrap() error {
	return ddlstore.ErrUnknownType
}

// Resolve looks typeName up and attaches param when the kind is sized.
// Fixed kinds ignore param. A sized kind declared without an argument resolves
// unsized, leaving the length to the server default.
func Resolve(typeName string, param Param) (Resolved, error) {
	k, ok := Lookup(typeName)
	if !ok {
		return Resolved{}, &UnknownTypeError{Name: typeName}
	}
	if !k.Sized() || param.IsZero() {
		return Resolved{Kind: k}, nil
	}
	return Resolved{Kind: k, Sized: true, Param: param}, nil
}

// MustResolve is Resolve for static type names; it panics on unknown names.
func MustResolve(typeName string, param Param) Resolved {
	r, err := Resolve(typeName, param)
	if err != nil {
		panic(err)
	}
	return r
}

// IntegerLike reports whether the resolved kind is parsed as an integer on bind.
func (r Resolved) IntegerLike() bool {
	return r.Kind.IntegerLike()
}

// String renders the type the way it is written in DDL, e.g. NVARCHAR(MAX).
func (r Resolved) String() string {
	if !r.Sized {
		return r.Kind.String()
	}
	return r.Kind.String() + "(" + r.Param.String() + ")"
}

// PostgresType renders the PostgreSQL column type the kind is stored as.
func (r Resolved) PostgresType() string {
	if !r.Kind.valid() {
		return ""
	}
	base := kinds[r.Kind].pgType
	if !r.Sized {
		return base
	}
	switch r.Kind {
	case Binary, VarBinary:
		return base
	case Char, NChar, VarChar, NVarChar:
		if r.Param.Max {
			return "text"
		}
	case Time, DateTime2, DateTimeOffset:
		// PostgreSQL caps fractional-second precision at 6
		if r.Param.Max {
			return base
		}
		if r.Param.N > 6 {
			return fmt.Sprintf("%s(6)", base)
		}
	case Decimal, Numeric:
		if r.Param.Max {
			return base
		}
	}
	return fmt.Sprintf("%s(%d)", base, r.Param.N)
}
