package repository

import (
	"fmt"
	"regexp"
	"strings"
)

var orderByRe = regexp.MustCompile(`(?i)\border\s+by\b`)

// Page selects a window of rows. A zero Top means no pagination.
// Number is 1-based; values below 1 mean the first page.
type Page struct {
	Top    int
	Number int
}

// All is the unpaginated Page.
var All = Page{}

// Offset returns the number of rows skipped before the page.
func (p Page) Offset() int {
	if p.Top <= 0 || p.Number <= 1 {
		return 0
	}
	return p.Top * (p.Number - 1)
}

// Apply restricts query to the page. A paginated query without an ORDER BY
// is ordered by orderBy, an already quoted column, when one is given.
// Queries are returned trimmed of any trailing semicolon.
func (p Page) Apply(query, orderBy string) string {
	query = trimStatement(query)
	if p.Top <= 0 {
		return query
	}
	if orderBy != "" && !orderByRe.MatchString(query) {
		query += " ORDER BY " + orderBy
	}
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, p.Top, p.Offset())
}

func trimStatement(query string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), ";"))
}
