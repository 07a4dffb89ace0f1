// Package sqltype is the type directory: it maps the textual type names found
// in CREATE TABLE statements to a closed set of column kinds.
//
// Both SQL Server spellings (BIT, NVARCHAR(MAX), DATETIME2, UNIQUEIDENTIFIER)
// and their PostgreSQL counterparts are accepted, and every kind knows the
// PostgreSQL column type it is stored as.
//
//	t, err := sqltype.Resolve("VARCHAR", sqltype.Size(255))
//	t.String()       // VARCHAR(255)
//	t.PostgresType() // varchar(255)
//
// Unknown names fail with *UnknownTypeError rather than resolving to a zero value.
package sqltype
