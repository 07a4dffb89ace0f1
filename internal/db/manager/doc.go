// Package manager provides table lifecycle operations for PostgreSQL.
//
// The manager package offers the statements a loader or repository needs
// around a parsed table definition:
//   - Checking table existence
//   - Creating a table from a parsed schema
//   - Dropping a table
//
// All operations use pgx.Identifier.Sanitize() for safe SQL identifier quoting,
// preventing SQL injection attacks while handling edge cases like table names
// with spaces, quotes, or special characters.
//
// # Example Usage
//
//	mgr := manager.New()
//	table := pgx.Identifier{"dbo", "User"}
//
//	exists, err := mgr.TableExists(ctx, conn, table)
//	if !exists {
//		err = mgr.CreateTable(ctx, conn, table, cols)
//	}
//
//	err = mgr.DropTable(ctx, conn, table)
//
// # Thread Safety
//
// Manager holds no state. Thread safety depends on the injected connection.
package manager
