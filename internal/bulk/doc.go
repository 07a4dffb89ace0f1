// Package bulk inserts many records into one table in a single COPY round trip
// and reads the materialized rows back.
//
// Values are coerced per column before they are streamed: NaN-like and missing
// values become NULL, and integer columns receive int64 or NULL. The rows
// produced by the server (identity values, defaults) are then fetched with the
// caller's find query, newest first, and returned in insertion order.
//
// Usage:
//
//	loader := bulk.NewLoader(manager, logger)
//	rows, err := loader.InsertMany(ctx, bulk.Request{
//	    Schema:         s,
//	    Table:          pgx.Identifier{"dbo", "User"},
//	    FindQuery:      `SELECT * FROM "dbo"."User"`,
//	    IdentityColumn: "UserId",
//	}, records)
package bulk
