// Package filesystem provides a local directory object store for
// filesmanager. Objects are plain files under a root directory, writes are
// atomic (temp file and rename) and read URLs are HMAC-signed links served by
// ObjectHandler.
//
// It is meant for development and tests; production deployments use the
// s3store package.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/metrics"
)

// incomingDir holds partially written objects. Keys never contain '/', so
// it cannot collide with an object.
const incomingDir = ".incoming"

const backendName = "filesystem"

// Config holds settings for the filesystem object store.
type Config struct {
	// PublicURL is the externally reachable base URL of the API server,
	// e.g. http://localhost:5000. Object URLs are PublicURL + "/objects/" + key.
	PublicURL string
	// SigningKey is the HMAC secret for signed URLs.
	SigningKey []byte
}

// Store implements filesmanager.ObjectStore on a local directory.
type Store struct {
	root      *os.Root
	publicURL string
	signer    *URLSigner
}

// NewStore creates a Store rooted at root.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root, cfg Config) (*Store, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("new filesystem store: signing key is required")
	}
	if _, err := url.Parse(cfg.PublicURL); err != nil {
		return nil, fmt.Errorf("new filesystem store: invalid public url: %w", err)
	}

	return &Store{
		root:      root,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		signer:    NewURLSigner(cfg.SigningKey),
	}, nil
}

// Signer returns the signer used for read URLs.
func (s *Store) Signer() *URLSigner {
	return s.signer
}

// EnsureBucket makes sure the root and its incoming directory are usable.
func (s *Store) EnsureBucket(ctx context.Context) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return filesmanager.NewStoreError("ensure bucket", "", filesmanager.ErrUnexpected, err)
	}

	if err := s.root.MkdirAll(incomingDir, 0o750); err != nil {
		metrics.RecordStoreOperation(backendName, "ensure_bucket", time.Since(start), false)
		kind := filesmanager.ErrUnexpected
		if errors.Is(err, fs.ErrPermission) {
			kind = filesmanager.ErrAccessDenied
		}
		return filesmanager.NewStoreError("ensure bucket", "", kind, err)
	}

	metrics.RecordStoreOperation(backendName, "ensure_bucket", time.Since(start), true)
	return nil
}

// PutObject atomically copies the file at localPath into the store under key.
func (s *Store) PutObject(ctx context.Context, localPath, key string) (string, error) {
	start := time.Now()

	src, err := os.Open(localPath) //#nosec G304 -- localPath is a staged upload
	if err != nil {
		metrics.RecordStoreOperation(backendName, "put_object", time.Since(start), false)
		return "", filesmanager.NewStoreError("put object", key, filesmanager.ErrUploadFailed, err)
	}
	defer func() { _ = src.Close() }()

	if err := s.write(ctx, key, src); err != nil {
		metrics.RecordStoreOperation(backendName, "put_object", time.Since(start), false)
		return "", filesmanager.NewStoreError("put object", key, filesmanager.ErrUploadFailed, err)
	}

	metrics.RecordStoreOperation(backendName, "put_object", time.Since(start), true)
	slog.Debug("filesystem put object", "key", key)
	return s.objectURL(key), nil
}

// ListObjects returns every regular file in the root, sorted by key.
func (s *Store) ListObjects(ctx context.Context) ([]filesmanager.StoreObject, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, filesmanager.NewStoreError("list objects", "", filesmanager.ErrListFailed, err)
	}

	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		metrics.RecordStoreOperation(backendName, "list_objects", time.Since(start), false)
		return nil, filesmanager.NewStoreError("list objects", "", filesmanager.ErrListFailed, err)
	}

	objects := make([]filesmanager.StoreObject, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		objects = append(objects, filesmanager.StoreObject{
			Key: entry.Name(),
			URL: s.objectURL(entry.Name()),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	metrics.RecordStoreOperation(backendName, "list_objects", time.Since(start), true)
	return objects, nil
}

// SignedReadURL returns an ObjectHandler URL for key valid for ttl.
func (s *Store) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", filesmanager.NewStoreError("sign url", key, filesmanager.ErrSignFailed, err)
	}

	q, err := s.signer.Sign(key, ttl)
	if err != nil {
		return "", filesmanager.NewStoreError("sign url", key, filesmanager.ErrSignFailed, err)
	}

	return s.objectURL(key) + "?" + q.Encode(), nil
}

// RenameObject copies oldKey to newKey and deletes oldKey.
func (s *Store) RenameObject(ctx context.Context, oldKey, newKey string) error {
	start := time.Now()

	src, err := s.root.Open(oldKey)
	if err != nil {
		metrics.RecordStoreOperation(backendName, "copy_object", time.Since(start), false)
		return filesmanager.NewStoreError("rename object", oldKey, filesmanager.ErrRenameFailed, notFound(err))
	}

	copyErr := s.write(ctx, newKey, src)
	_ = src.Close()
	if copyErr != nil {
		metrics.RecordStoreOperation(backendName, "copy_object", time.Since(start), false)
		return filesmanager.NewStoreError("rename object", oldKey, filesmanager.ErrRenameFailed, copyErr)
	}
	metrics.RecordStoreOperation(backendName, "copy_object", time.Since(start), true)

	start = time.Now()
	if err := s.root.Remove(oldKey); err != nil {
		metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), false)
		return filesmanager.NewStoreError("rename object", oldKey, filesmanager.ErrRenameFailed, notFound(err))
	}
	metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), true)

	slog.Debug("filesystem rename object", "src", oldKey, "dst", newKey)
	return nil
}

// DeleteObject removes key. A missing key is reported as ErrDeleteFailed
// wrapping filesmanager.ErrNotFound.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return filesmanager.NewStoreError("delete object", key, filesmanager.ErrDeleteFailed, err)
	}

	if err := s.root.Remove(key); err != nil {
		metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), false)
		return filesmanager.NewStoreError("delete object", key, filesmanager.ErrDeleteFailed, notFound(err))
	}

	metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), true)
	slog.Debug("filesystem delete object", "key", key)
	return nil
}

// Open opens an object for reading. Returns filesmanager.ErrNotFound if the
// key does not exist.
func (s *Store) Open(ctx context.Context, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		return nil, notFound(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, filesmanager.ErrNotFound
	}

	return f, nil
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

// write atomically writes content to key using a temp file and rename.
func (s *Store) write(ctx context.Context, key string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.MkdirAll(incomingDir, 0o750); err != nil {
		return fmt.Errorf("could not create incoming directory: %w", err)
	}

	tmpFile := incomingDir + "/" + tmpFileName()
	t, err := s.root.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if err := s.root.Rename(tmpFile, key); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return nil
}

func (s *Store) objectURL(key string) string {
	return s.publicURL + "/objects/" + url.PathEscape(key)
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", filesmanager.ErrNotFound, err)
	}
	return err
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
