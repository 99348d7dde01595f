package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lista5/filesmanager"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the files table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, tables filesmanager.Tables) error {
	if err := createFilesTable(ctx, db, tables.Files); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Files, err)
	}
	return nil
}

// DropTables removes the files table.
func DropTables(ctx context.Context, db *sql.DB, tables filesmanager.Tables) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tables.Files))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Files, err)
	}
	return nil
}

func createFilesTable(ctx context.Context, db *sql.DB, tableName string) error {
	// Lengths are checked by the repo; SQLite ignores declared sizes.
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL
		)
	`, quoteIdentifier(tableName))

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return nil
}
