package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/ddlstore/internal/sqltype"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

var (
	createTableRe = regexp.MustCompile(`(?i)\bcreate\s+table\s+(?:if\s+not\s+exists\s+)?`)
	identityRe    = regexp.MustCompile(`(?i)\bidentity\b`)
	notNullRe     = regexp.MustCompile(`(?i)\bnot\s+null\b`)
	defaultRe     = regexp.MustCompile(`(?i)\bdefault\s+`)
	defaultEndRe  = regexp.MustCompile(`(?i)\s(?:not\s+null|null|primary\s+key|unique|check|references|constraint|collate|identity)\b`)
	constraintRe  = regexp.MustCompile(`(?i)^(?:constraint|primary\s+key|unique|foreign\s+key|check|index|period\s+for)\b`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// serialTypes are PostgreSQL pseudo-types that imply an identity column.
var serialTypes = map[string]string{
	"SMALLSERIAL": "SMALLINT",
	"SERIAL":      "INT",
	"BIGSERIAL":   "BIGINT",
}

// ParseError reports DDL text that could not be turned into a schema.
type ParseError struct {
	Reason   string
	Fragment string
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return "parse ddl: " + e.Reason
	}
	return fmt.Sprintf("parse ddl: %s: %q", e.Reason, e.Fragment)
}

func (e *ParseError) Unwrap() error {
	return ddlstore.ErrParseFailure
}

// Option configures Parse.
type Option func(*options)

type options struct {
	excluded     []string
	keepIdentity bool
}

// WithExcluded drops the named columns from the result. Names are compared
// case-insensitively.
func WithExcluded(names ...string) Option {
	return func(o *options) {
		o.excluded = append(o.excluded, names...)
	}
}

// WithIdentity controls whether identity (auto-increment) columns are kept.
// They are dropped by default.
func WithIdentity(keep bool) Option {
	return func(o *options) {
		o.keepIdentity = keep
	}
}

// ParseLenient parses ddl and returns an empty Schema on any failure,
// including a panic inside the parser.
func ParseLenient(ddl string, opts ...Option) (result Schema) {
	defer func() {
		if r := recover(); r != nil {
			result = Schema{}
		}
	}()

	s, err := Parse(ddl, opts...)
	if err != nil {
		return Schema{}
	}
	return s
}

// Parse turns the first CREATE TABLE statement in ddl into a Schema.
func Parse(ddl string, opts ...Option) (Schema, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	_, block, err := extractTable(stripComments(ddl))
	if err != nil {
		return Schema{}, err
	}

	skip := newNameSet(o.excluded)
	seen := make(nameSet)
	var cols []Column

	for _, frag := range splitFragments(block) {
		frag = normalize(frag)
		if frag == "" || constraintRe.MatchString(frag) {
			continue
		}

		col, err := parseColumn(frag, o.keepIdentity)
		if err != nil {
			return Schema{}, err
		}
		if col.Identity && !o.keepIdentity {
			continue
		}
		if skip.has(col.Name) {
			continue
		}
		if seen.has(col.Name) {
			return Schema{}, &ParseError{Reason: "duplicate column " + col.Name}
		}
		seen[strings.ToLower(col.Name)] = struct{}{}
		cols = append(cols, col)
	}

	return Schema{cols: cols}, nil
}

// ParseTableName returns the unquoted parts of the table name declared by the
// first CREATE TABLE statement in ddl, e.g. ["dbo", "User"].
func ParseTableName(ddl string) ([]string, error) {
	name, _, err := extractTable(stripComments(ddl))
	if err != nil {
		return nil, err
	}
	parts := SplitIdentifier(name)
	if len(parts) == 0 {
		return nil, &ParseError{Reason: "missing table name"}
	}
	return parts, nil
}

// extractTable returns the raw table name and the column block between the
// table's opening parenthesis and its matching closing parenthesis.
func extractTable(ddl string) (name, block string, err error) {
	loc := createTableRe.FindStringIndex(ddl)
	if loc == nil {
		return "", "", &ParseError{Reason: "no CREATE TABLE statement"}
	}

	open := -1
	for i := loc[1]; i < len(ddl); {
		c := ddl[i]
		if isQuote(c) {
			i = skipQuoted(ddl, i)
			continue
		}
		if c == '(' {
			open = i
			break
		}
		if c == ';' {
			break
		}
		i++
	}
	if open < 0 {
		return "", "", &ParseError{Reason: "no column list"}
	}

	end := matchParen(ddl, open)
	if end < 0 {
		return "", "", &ParseError{Reason: "unbalanced parentheses"}
	}

	return strings.TrimSpace(ddl[loc[1]:open]), ddl[open+1 : end], nil
}

// splitFragments splits a column block on top-level commas that are followed
// by a quoted identifier or a table constraint keyword. Commas inside type
// arguments, default expressions and literals never split.
func splitFragments(block string) []string {
	var frags []string
	start, depth := 0, 0
	for i := 0; i < len(block); {
		c := block[i]
		switch {
		case isQuote(c):
			i = skipQuoted(block, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			next := strings.TrimLeft(block[i+1:], " \t\r\n")
			if next != "" && (isQuote(next[0]) && next[0] != '\'' || constraintRe.MatchString(next)) {
				frags = append(frags, block[start:i])
				start = i + 1
			}
		}
		i++
	}
	return append(frags, block[start:])
}

func normalize(frag string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(frag, " "))
}

// parseColumn reads one column definition. Identity columns that are not
// kept are recognised before their type is resolved, so their type may be
// one the directory does not know.
func parseColumn(frag string, keepIdentity bool) (Column, error) {
	name, rest, quoted := readIdentifier(frag)
	if !quoted || name == "" {
		return Column{}, &ParseError{Reason: "column definition without a quoted identifier", Fragment: frag}
	}
	rest = strings.TrimSpace(rest)

	typeName, param, tail := readType(rest)
	if typeName == "" {
		return Column{}, &ParseError{Reason: "missing type for column " + name, Fragment: frag}
	}

	masked := mask(tail)
	identity := identityRe.MatchString(masked)
	if base, ok := serialTypes[typeName]; ok {
		typeName, identity = base, true
	}
	if identity && !keepIdentity {
		return Column{Name: name, Identity: true}, nil
	}

	resolved, err := sqltype.Resolve(typeName, param)
	if err != nil {
		return Column{}, fmt.Errorf("column %q: %w", name, err)
	}

	col := Column{
		Name:     name,
		Nullable: !notNullRe.MatchString(masked),
		Type:     resolved,
		Identity: identity,
	}
	if def, ok := readDefault(tail, masked); ok {
		col.Default = &def
	}
	return col, nil
}

// readType reads the type token after a column name, folds the multi-word
// PostgreSQL spellings, and picks up a size argument written directly after
// the type. It returns the upper-case type name, the parameter, and whatever
// follows.
func readType(s string) (string, sqltype.Param, string) {
	tok, tail, _ := readIdentifier(s)
	typeName := strings.ToUpper(tok)
	typeName, tail = foldTypeWords(typeName, tail)

	var param sqltype.Param
	trimmed := strings.TrimLeft(tail, " ")
	if strings.HasPrefix(trimmed, "(") {
		if end := matchParen(trimmed, 0); end > 0 {
			if p, ok := sqltype.ParseParam(trimmed[1:end]); ok {
				param = p
			}
			tail = trimmed[end+1:]
		}
	}

	typeName, tail = foldTypeWords(typeName, tail)
	return typeName, param, tail
}

func foldTypeWords(typeName, tail string) (string, string) {
	switch typeName {
	case "DOUBLE":
		if rest, ok := cutWords(tail, "PRECISION"); ok {
			return "FLOAT", rest
		}
	case "CHARACTER", "CHAR":
		if rest, ok := cutWords(tail, "VARYING"); ok {
			return "VARCHAR", rest
		}
	case "TIMESTAMP", "TIME":
		if rest, ok := cutWords(tail, "WITH", "TIME", "ZONE"); ok {
			if typeName == "TIME" {
				return "TIME", rest
			}
			return "TIMESTAMPTZ", rest
		}
		if rest, ok := cutWords(tail, "WITHOUT", "TIME", "ZONE"); ok {
			return typeName, rest
		}
	}
	return typeName, tail
}

// cutWords removes the given words from the front of s, ignoring case.
func cutWords(s string, words ...string) (string, bool) {
	rest := s
	for _, w := range words {
		rest = strings.TrimLeft(rest, " ")
		if len(rest) < len(w) || !strings.EqualFold(rest[:len(w)], w) {
			return s, false
		}
		if len(rest) > len(w) && rest[len(w)] != ' ' && rest[len(w)] != '(' {
			return s, false
		}
		rest = rest[len(w):]
	}
	return rest, true
}

// readDefault captures the DEFAULT expression from tail, stopping at the next
// column clause. One or more wrapping parentheses are removed, so DEFAULT ((0))
// yields "0".
func readDefault(tail, masked string) (string, bool) {
	loc := defaultRe.FindStringIndex(masked)
	if loc == nil {
		return "", false
	}

	expr, exprMask := tail[loc[1]:], masked[loc[1]:]
	if end := defaultEndRe.FindStringIndex(exprMask); end != nil {
		expr = expr[:end[0]]
	}
	expr = strings.TrimSpace(expr)

	for strings.HasPrefix(expr, "(") && matchParen(expr, 0) == len(expr)-1 {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr, expr != ""
}
