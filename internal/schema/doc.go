// Package schema parses a single CREATE TABLE statement into an ordered list
// of column descriptors.
//
// The parser understands the SQL Server flavour of DDL (bracket-quoted
// identifiers, IDENTITY(seed, step), NVARCHAR(MAX)) as well as double-quoted
// and backtick-quoted identifiers. Each column carries its name, nullability,
// resolved type (see package sqltype) and the raw text of its DEFAULT clause.
//
// # Strict and lenient parsing
//
// Parse returns an explicit error: *ParseError for structural problems and
// *sqltype.UnknownTypeError for type names the directory does not know.
// ParseLenient never fails; it substitutes an empty Schema for any error, which
// is what repositories built at package init time use. Callers of ParseLenient
// should check Schema.IsEmpty when an empty result is unexpected.
//
// # Example Usage
//
//	s, err := schema.Parse(ddl, schema.WithExcluded("password", "dateCreated"))
//	if err != nil {
//	    return err
//	}
//	for _, col := range s.Columns() {
//	    fmt.Println(col.Name, col.Type)
//	}
package schema
