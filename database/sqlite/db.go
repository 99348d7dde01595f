package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lista5/filesmanager"
)

var filesTableSchema = map[string]filesmanager.Column{
	"id":   {Type: "integer"},
	"name": {Type: "text", Unique: true},
	"url":  {Type: "text"},
}

// ValidateSchema checks that the files table exists with the expected
// columns and a unique index on name. Layout problems are reported as a
// *filesmanager.SchemaError.
func ValidateSchema(ctx context.Context, db *sql.DB, tables filesmanager.Tables) error {
	if !filesmanager.IsValidTableName(tables.Files) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Files)
	}

	columns, err := readColumns(ctx, db, tables.Files)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Files, err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist: %w", tables.Files, filesmanager.ErrSchemaMismatch)
	}

	if err := markUnique(ctx, db, tables.Files, columns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Files, err)
	}

	return filesmanager.CompareColumns(tables.Files, filesTableSchema, columns)
}

// readColumns returns the columns of table; an unknown table has none.
func readColumns(ctx context.Context, db *sql.DB, table string) (map[string]filesmanager.Column, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]filesmanager.Column)
	for rows.Next() {
		var name, dataType string
		var notNull int
		if err := rows.Scan(&name, &dataType, &notNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = filesmanager.Column{
			Type:     strings.ToLower(dataType),
			Nullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

// markUnique flags every column covered by a single-column unique index.
func markUnique(ctx context.Context, db *sql.DB, table string, columns map[string]filesmanager.Column) error {
	const query = `
		SELECT ii.name
		FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
		WHERE il."unique" = 1 AND ii.name IS NOT NULL
		AND (SELECT COUNT(*) FROM pragma_index_info(il.name)) = 1
	`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return fmt.Errorf("query unique indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
