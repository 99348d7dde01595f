// Package postgres implements filesmanager.FileRepo on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lista5/filesmanager"
)

const uniqueViolation = "23505"

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables filesmanager.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.Files}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repo) Get(ctx context.Context, id int64) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s WHERE id = $1`, r.tableName)
	return r.getOne(ctx, "get", query, id)
}

func (r *Repo) GetByName(ctx context.Context, name string) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s WHERE name = $1`, r.tableName)
	return r.getOne(ctx, "get by name", query, name)
}

func (r *Repo) getOne(ctx context.Context, op, query string, arg any) (filesmanager.FileRecord, error) {
	var f filesmanager.FileRecord
	err := r.pool.QueryRow(ctx, query, arg).Scan(&f.ID, &f.Name, &f.URL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filesmanager.FileRecord{}, filesmanager.ErrNotFound
		}
		return filesmanager.FileRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (r *Repo) Create(ctx context.Context, f filesmanager.NewFile) (filesmanager.FileRecord, error) {
	if err := validateFile(f.Name, f.URL); err != nil {
		return filesmanager.FileRecord{}, fmt.Errorf("create: %w", err)
	}

	rec, err := r.upsert(ctx, r.pool, f)
	if err != nil {
		return filesmanager.FileRecord{}, fmt.Errorf("create: %w", err)
	}
	return rec, nil
}

func (r *Repo) upsert(ctx context.Context, q querier, f filesmanager.NewFile) (filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, name, url
	`, r.tableName)

	var rec filesmanager.FileRecord
	if err := q.QueryRow(ctx, query, f.Name, f.URL).Scan(&rec.ID, &rec.Name, &rec.URL); err != nil {
		return filesmanager.FileRecord{}, err
	}
	return rec, nil
}

func (r *Repo) Update(ctx context.Context, rec filesmanager.FileRecord) error {
	if err := validateFile(rec.Name, rec.URL); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET name = $1, url = $2 WHERE id = $3`, r.tableName)

	tag, err := r.pool.Exec(ctx, query, rec.Name, rec.URL, rec.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("update: %w: name %s", filesmanager.ErrConflict, rec.Name)
		}
		return fmt.Errorf("update: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update: %w", filesmanager.ErrNotFound)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tableName)

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", filesmanager.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context) ([]filesmanager.FileRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s ORDER BY id`, r.tableName)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

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
func (r *Repo) Apply(ctx context.Context, cs filesmanager.Changeset) error {
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

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("apply: begin: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if len(cs.Deletes) > 0 {
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tableName)
		if _, err := tx.Exec(ctx, query, cs.Deletes); err != nil {
			return fmt.Errorf("apply: delete: %w", err)
		}
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET url = $1 WHERE id = $2`, r.tableName)
	for _, u := range cs.Updates {
		if _, err := tx.Exec(ctx, updateQuery, u.URL, u.ID); err != nil {
			return fmt.Errorf("apply: update %d: %w", u.ID, err)
		}
	}

	for _, f := range cs.Inserts {
		if _, err := r.upsert(ctx, tx, f); err != nil {
			return fmt.Errorf("apply: insert %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}

	return nil
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
