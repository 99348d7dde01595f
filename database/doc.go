// Package database provides a unified interface for connecting to the file
// index backends.
//
// # Supported Backends
//
//   - PostgreSQL: server backend using a pgx connection pool
//   - SQLite: embedded backend for development and single-node deployments
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "filesmanager.db",
//	    Tables: filesmanager.Tables{Files: "files"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	repo := db.GetRepo()
//
// Both backends store one row per object: an autoincrement id, a unique
// name (at most 255 bytes) and a signed URL (at most 2048 bytes).
// Reconciliation changesets are applied in a single transaction.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
