// Package sqlite implements filesmanager.FileRepo using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lista5/filesmanager"
)

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a FileRepo over an open database. The table must exist.
func NewRepo(db *sql.DB, tables filesmanager.Tables) (filesmanager.FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{db: db, tableName: tables.Files}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repo) Get(ctx context.Context, id int64) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // G201: table name is validated
	return r.getOne(ctx, "get", query, id)
}

func (r *repo) GetByName(ctx context.Context, name string) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s WHERE name = ?`, r.tableName) //nolint:gosec // G201: table name is validated
	return r.getOne(ctx, "get by name", query, name)
}

func (r *repo) getOne(ctx context.Context, op, query string, arg any) (filesmanager.FileRecord, error) {
	var f filesmanager.FileRecord
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&f.ID, &f.Name, &f.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filesmanager.FileRecord{}, filesmanager.ErrNotFound
		}
		return filesmanager.FileRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (r *repo) Create(ctx context.Context, f filesmanager.NewFile) (filesmanager.FileRecord, error) {
	if err := validateFile(f.Name, f.URL); err != nil {
		return filesmanager.FileRecord{}, fmt.Errorf("create: %w", err)
	}

	rec, err := r.upsert(ctx, r.db, f)
	if err != nil {
		return filesmanager.FileRecord{}, fmt.Errorf("create: %w", err)
	}
	return rec, nil
}

func (r *repo) upsert(ctx context.Context, q querier, f filesmanager.NewFile) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (name, url) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET url = excluded.url
		RETURNING id, name, url`, r.tableName)

	var rec filesmanager.FileRecord
	if err := q.QueryRowContext(ctx, query, f.Name, f.URL).Scan(&rec.ID, &rec.Name, &rec.URL); err != nil {
		return filesmanager.FileRecord{}, err
	}
	return rec, nil
}

func (r *repo) Update(ctx context.Context, rec filesmanager.FileRecord) error {
	if err := validateFile(rec.Name, rec.URL); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET name = ?, url = ? WHERE id = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	result, err := r.db.ExecContext(ctx, query, rec.Name, rec.URL, rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update: %w: name %s", filesmanager.ErrConflict, rec.Name)
		}
		return fmt.Errorf("update: %w", err)
	}

	return expectOneRow(result, "update")
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return expectOneRow(result, "delete")
}

func (r *repo) List(ctx context.Context) ([]filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s ORDER BY id`, r.tableName) //nolint:gosec // G201: table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := make([]filesmanager.FileRecord, 0)
	for rows.Next() {
		var f filesmanager.FileRecord
		if err := rows.Scan(&f.ID, &f.Name, &f.URL); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return files, nil
}

// Apply runs deletes, then URL updates, then inserts in one transaction.
// Deletes go first so a name freed in this pass can be inserted again.
func (r *repo) Apply(ctx context.Context, cs filesmanager.Changeset) (err error) {
	for _, f := range cs.Inserts {
		if err := validateFile(f.Name, f.URL); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for _, u := range cs.Updates {
		if err := validateURL(u.URL); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tableName)        //nolint:gosec // G201: table name is validated
	updateQuery := fmt.Sprintf(`UPDATE %s SET url = ? WHERE id = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	for _, id := range cs.Deletes {
		if _, err = tx.ExecContext(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("apply: delete %d: %w", id, err)
		}
	}

	for _, u := range cs.Updates {
		if _, err = tx.ExecContext(ctx, updateQuery, u.URL, u.ID); err != nil {
			return fmt.Errorf("apply: update %d: %w", u.ID, err)
		}
	}

	for _, f := range cs.Inserts {
		if _, err = r.upsert(ctx, tx, f); err != nil {
			return fmt.Errorf("apply: insert %s: %w", f.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}

	return nil
}

func expectOneRow(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, filesmanager.ErrNotFound)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// The primary code is reported when extended codes are off.
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
}

func validateFile(name, url string) error {
	if !filesmanager.IsStorableName(name) {
		return fmt.Errorf("%w: name %q does not fit the name column", filesmanager.ErrInvalidInput, name)
	}
	return validateURL(url)
}

func validateURL(url string) error {
	if url == "" || len(url) > filesmanager.MaxURLLength {
		return fmt.Errorf("%w: url must be 1..%d bytes", filesmanager.ErrInvalidInput, filesmanager.MaxURLLength)
	}
	return nil
}
