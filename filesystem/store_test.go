package filesystem_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/filesystem"
)

const testPublicURL = "http://files.test"

func newTestStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	store, err := filesystem.NewStore(root, filesystem.Config{
		PublicURL:  testPublicURL + "/",
		SigningKey: []byte("test-secret"),
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(context.Background()))

	return store, dir
}

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewStore_RequiresSigningKey(t *testing.T) {
	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = root.Close() }()

	_, err = filesystem.NewStore(root, filesystem.Config{PublicURL: testPublicURL})
	assert.Error(t, err)
}

func TestStore_PutObject(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	publicURL, err := store.PutObject(ctx, writeLocal(t, "hello"), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, testPublicURL+"/objects/report.pdf", publicURL)

	content, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	t.Run("overwrites existing key", func(t *testing.T) {
		_, err := store.PutObject(ctx, writeLocal(t, "second"), "report.pdf")
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(content))
	})

	t.Run("escapes key in url", func(t *testing.T) {
		publicURL, err := store.PutObject(ctx, writeLocal(t, "x"), "my file.txt")
		require.NoError(t, err)
		assert.Equal(t, testPublicURL+"/objects/my%20file.txt", publicURL)
	})

	t.Run("missing local file", func(t *testing.T) {
		_, err := store.PutObject(ctx, filepath.Join(t.TempDir(), "nope"), "a.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, filesmanager.ErrUploadFailed)
	})

	t.Run("canceled context leaves no object", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.PutObject(cctx, writeLocal(t, "x"), "canceled.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, filesmanager.ErrUploadFailed)
		assert.NoFileExists(t, filepath.Join(dir, "canceled.txt"))
	})
}

func TestStore_ListObjects(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"b.txt", "a.txt", "c"} {
		_, err := store.PutObject(ctx, writeLocal(t, key), key)
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o750))

	objects, err := store.ListObjects(ctx)
	require.NoError(t, err)

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
		assert.Equal(t, testPublicURL+"/objects/"+obj.Key, obj.URL)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c"}, keys)

	t.Run("empty store", func(t *testing.T) {
		empty, _ := newTestStore(t)
		objects, err := empty.ListObjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, objects)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.ListObjects(cctx)
		assert.ErrorIs(t, err, filesmanager.ErrListFailed)
	})
}

func TestStore_RenameObject(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutObject(ctx, writeLocal(t, "data"), "old.txt")
	require.NoError(t, err)

	require.NoError(t, store.RenameObject(ctx, "old.txt", "new.txt"))

	assert.NoFileExists(t, filepath.Join(dir, "old.txt"))
	content, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	t.Run("missing source", func(t *testing.T) {
		err := store.RenameObject(ctx, "ghost.txt", "other.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, filesmanager.ErrRenameFailed)
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)
		assert.NoFileExists(t, filepath.Join(dir, "other.txt"))
	})
}

func TestStore_DeleteObject(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutObject(ctx, writeLocal(t, "data"), "gone.txt")
	require.NoError(t, err)

	require.NoError(t, store.DeleteObject(ctx, "gone.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "gone.txt"))

	t.Run("missing key", func(t *testing.T) {
		err := store.DeleteObject(ctx, "gone.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, filesmanager.ErrDeleteFailed)
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)

		var storeErr *filesmanager.StoreError
		require.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "gone.txt", storeErr.Key)
	})
}

func TestStore_SignedReadURL_ServedByHandler(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutObject(ctx, writeLocal(t, "secret content"), "doc.txt")
	require.NoError(t, err)

	signed, err := store.SignedReadURL(ctx, "doc.txt", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, testPublicURL+"/objects/doc.txt?"))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	require.NoError(t, store.Signer().Verify("doc.txt", u.Query()))
	assert.Error(t, store.Signer().Verify("other.txt", u.Query()))

	handler := store.ObjectHandler()

	t.Run("valid signature", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "secret content", rec.Body.String())
	})

	t.Run("tampered key", func(t *testing.T) {
		_, err := store.PutObject(ctx, writeLocal(t, "other"), "other.txt")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/objects/other.txt?"+u.RawQuery, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing signature", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/objects/doc.txt", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("deleted object", func(t *testing.T) {
		require.NoError(t, store.DeleteObject(ctx, "doc.txt"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, u.RequestURI(), nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestStore_SignedReadURL_InvalidTTL(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.SignedReadURL(context.Background(), "a.txt", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, filesmanager.ErrSignFailed)
}

func TestStore_ConcurrentPuts(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	src := writeLocal(t, strings.Repeat("x", 64*1024))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.PutObject(ctx, src, "same.bin")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f, err := os.Open(filepath.Join(dir, "same.bin"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, content, 64*1024)

	objects, err := store.ListObjects(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}
