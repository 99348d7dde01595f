package filesmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type FileService struct {
	repo       FileRepo
	store      ObjectStore
	reconciler *Reconciler
	urlTTL     time.Duration
	stagingDir string
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	URLTTL     time.Duration // Lifetime of signed read URLs (default: 1h)
	StagingDir string        // Directory uploads are spooled to before the put (default: os.TempDir())
}

func NewFileService(repo FileRepo, store ObjectStore, cfg ServiceConfig) (*FileService, error) {
	if repo == nil {
		return nil, errors.New("new file service: repo is required")
	}
	if store == nil {
		return nil, errors.New("new file service: object store is required")
	}

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	stagingDir := cfg.StagingDir
	if stagingDir == "" {
		stagingDir = os.TempDir()
	}
	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return nil, fmt.Errorf("new file service: create staging directory: %w", err)
	}

	return &FileService{
		repo:       repo,
		store:      store,
		reconciler: NewReconciler(repo, store, ttl),
		urlTTL:     ttl,
		stagingDir: stagingDir,
	}, nil
}

// Sync runs one full reconciliation pass between the object store and the
// file index. See Reconciler.Plan for the rules.
func (s *FileService) Sync(ctx context.Context) (SyncReport, error) {
	return s.reconciler.Sync(ctx)
}

// List reconciles the index with the object store and returns every record.
// Each returned URL was signed during this call.
func (s *FileService) List(ctx context.Context) ([]FileRecord, error) {
	if _, err := s.Sync(ctx); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return files, nil
}

// Upload stores new content in the object store and records it in the index.
//
// The method performs the following steps:
//  1. Derives the object key from the request (custom base name plus the
//     original extension, or the original file name)
//  2. Spools the content into the staging directory
//  3. Puts the staged file into the object store
//  4. Signs a read URL and writes the record
//
// There is no rollback. If the record write fails after the put succeeded,
// the object stays in the store and the next reconciliation indexes it.
//
// Error types returned:
//   - ErrInvalidInput: empty file name or a derived key that is not a valid name
//   - *StoreError (ErrCredentialsMissing, ErrUploadFailed, ErrSignFailed)
//   - Wrapped repository errors
func (s *FileService) Upload(ctx context.Context, req UploadRequest, content io.Reader) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	key, err := UploadKey(req)
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	staged, err := s.stage(ctx, content)
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w", key, err)
	}
	defer func() {
		if rmErr := os.Remove(staged); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("failed to remove staged upload", "path", staged, "err", rmErr)
		}
	}()

	if _, err := s.store.PutObject(ctx, staged, key); err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w", key, err)
	}

	url, err := s.store.SignedReadURL(ctx, key, s.urlTTL)
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w", key, err)
	}

	rec, err := s.repo.Create(ctx, NewFile{Name: key, URL: url})
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: record: %w", key, err)
	}

	return rec, nil
}

// Rename moves the object behind a record to a new base name, keeping the
// current extension, and updates the record with the new name and a fresh URL.
//
// A rename onto a name held by a different record fails with ErrConflict
// before the object store is touched. A store failure leaves the record as it
// was; a record failure after a successful store rename leaves the record
// pointing at the old key until the next reconciliation.
func (s *FileService) Rename(ctx context.Context, id int64, newBase string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("rename: %w", err)
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return FileRecord{}, fmt.Errorf("rename %d: %w", id, err)
	}

	newKey, err := RenameKey(rec.Name, newBase)
	if err != nil {
		return FileRecord{}, fmt.Errorf("rename %d: %w", id, err)
	}

	if newKey != rec.Name {
		holder, lookupErr := s.repo.GetByName(ctx, newKey)
		switch {
		case lookupErr == nil && holder.ID != rec.ID:
			return FileRecord{}, fmt.Errorf("rename %d to %s: %w: name is taken by file %d", id, newKey, ErrConflict, holder.ID)
		case lookupErr != nil && !errors.Is(lookupErr, ErrNotFound):
			return FileRecord{}, fmt.Errorf("rename %d: %w", id, lookupErr)
		}

		if err := s.store.RenameObject(ctx, rec.Name, newKey); err != nil {
			return FileRecord{}, fmt.Errorf("rename %d: %w", id, err)
		}
	}

	url, err := s.store.SignedReadURL(ctx, newKey, s.urlTTL)
	if err != nil {
		return FileRecord{}, fmt.Errorf("rename %d: %w", id, err)
	}

	rec.Name = newKey
	rec.URL = url

	if err := s.repo.Update(ctx, rec); err != nil {
		return FileRecord{}, fmt.Errorf("rename %d: record: %w", id, err)
	}

	return rec, nil
}

// Delete removes the object behind a record and then the record itself.
// An object that is already gone counts as deleted. A record failure after
// the object was deleted is repaired by the next reconciliation.
func (s *FileService) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}

	if err := s.store.DeleteObject(ctx, rec.Name); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete %d: %w", id, err)
		}
		slog.Warn("object already missing, removing record", "id", id, "name", rec.Name)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %d: record: %w", id, err)
	}

	return nil
}

// Download returns the last signed URL stored for a record. The URL is not
// re-signed; it may have expired if no list ran recently.
func (s *FileService) Download(ctx context.Context, id int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("download %d: %w", id, err)
	}

	return rec.URL, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// stage copies content into a new file in the staging directory and returns
// its path. The caller removes the file.
func (s *FileService) stage(ctx context.Context, content io.Reader) (string, error) {
	path := filepath.Join(s.stagingDir, ".upload-"+uuid.NewString())

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //#nosec G304 -- path is generated
	if err != nil {
		return "", fmt.Errorf("stage: %w", err)
	}

	_, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: content})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("stage: %w", errors.Join(copyErr, closeErr))
	}

	return path, nil
}
