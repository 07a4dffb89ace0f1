// Package params binds record values to a parsed schema for single-row
// statements.
//
// Bind walks the schema, skips the caller's excluded names, and pairs every
// remaining column with its resolved type and the record's value (nil when
// the record lacks the field). The resulting Set can be handed to pgx as
// named arguments or rendered into positional INSERT and UPDATE statements.
//
// # Example Usage
//
//	set := params.Bind(userSchema, []string{"password", "dateCreated"}, record.Map(user))
//	rows, err := pool.Query(ctx, createUserSQL, set.NamedArgs())
package params
