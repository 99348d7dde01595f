package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lista5/filesmanager"
)

// Migrate creates the files table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filesmanager.Tables) error {
	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Files, err)
	}
	return nil
}

// DropTables removes the files table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filesmanager.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.Files}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Files, err)
	}
	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(%d) NOT NULL UNIQUE,
			url VARCHAR(%d) NOT NULL
		)
	`, pgx.Identifier{tableName}.Sanitize(), filesmanager.MaxNameLength, filesmanager.MaxURLLength)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}
