package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lista5/filesmanager"
)

var filesTableSchema = map[string]filesmanager.Column{
	"id":   {Type: "bigint"},
	"name": {Type: "character varying", Unique: true},
	"url":  {Type: "character varying"},
}

// ValidateSchema checks that the files table exists in the current schema
// with the expected columns and a unique constraint on name. Layout
// problems are reported as a *filesmanager.SchemaError.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables filesmanager.Tables) error {
	if !filesmanager.IsValidTableName(tables.Files) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Files)
	}

	columns, err := readColumns(ctx, pool, tables.Files)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Files, err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist: %w", tables.Files, filesmanager.ErrSchemaMismatch)
	}

	if err := markUnique(ctx, pool, tables.Files, columns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Files, err)
	}

	return filesmanager.CompareColumns(tables.Files, filesTableSchema, columns)
}

// readColumns returns the columns of table; an unknown table has none.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]filesmanager.Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]filesmanager.Column)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = filesmanager.Column{
			Type:     strings.ToLower(dataType),
			Nullable: nullable == "YES",
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

// markUnique flags every column covered by a single-column unique index.
func markUnique(ctx context.Context, pool *pgxpool.Pool, table string, columns map[string]filesmanager.Column) error {
	const query = `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = i.indkey[0]
		WHERE i.indrelid = to_regclass($1) AND i.indisunique AND i.indnatts = 1
	`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return fmt.Errorf("query unique indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan unique index: %w", err)
		}
		if col, ok := columns[name]; ok {
			col.Unique = true
			columns[name] = col
		}
	}

	return rows.Err()
}
