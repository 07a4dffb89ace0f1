package manager

import (
	"regexp"
	"strings"

	"github.com/vvka-141/ddlstore/internal/sqltype"
)

var (
	numberLiteralRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	stringLiteralRe = regexp.MustCompile(`^[Nn]?'((?:[^']|'')*)'$`)
)

var defaultFuncs = map[string]string{
	"getdate()":           "now()",
	"getutcdate()":        "now()",
	"sysdatetime()":       "now()",
	"sysutcdatetime()":    "now()",
	"sysdatetimeoffset()": "now()",
	"current_timestamp":   "now()",
	"now()":               "now()",
	"newid()":             "gen_random_uuid()",
	"newsequentialid()":   "gen_random_uuid()",
}

// translateDefault rewrites a DEFAULT expression for PostgreSQL. ok is false
// when the expression has no known equivalent.
func translateDefault(expr string, kind sqltype.Kind) (string, bool) {
	expr = unwrapParens(strings.TrimSpace(expr))
	if expr == "" {
		return "", false
	}

	if fn, ok := defaultFuncs[strings.ToLower(expr)]; ok {
		return fn, true
	}
	if strings.EqualFold(expr, "null") {
		return "NULL", true
	}

	if kind == sqltype.Bit {
		switch expr {
		case "0", "'0'":
			return "false", true
		case "1", "'1'":
			return "true", true
		}
		return "", false
	}

	if numberLiteralRe.MatchString(expr) {
		return expr, true
	}
	if m := stringLiteralRe.FindStringSubmatch(expr); m != nil {
		return "'" + m[1] + "'", true
	}
	return "", false
}

// unwrapParens strips parentheses that enclose the whole expression,
// as in ((0)).
func unwrapParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && enclosing(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// enclosing reports whether the opening parenthesis at s[0] closes at the end.
func enclosing(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}
