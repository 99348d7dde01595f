package filesystem

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lista5/filesmanager"
)

// ObjectHandler serves objects behind signed URLs issued by the store.
// Mount it under /objects/; the key is the path remainder.
func (s *Store) ObjectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		_, key, ok := strings.Cut(r.URL.Path, "/objects/")
		if !ok || !filesmanager.IsValidName(key) {
			http.NotFound(w, r)
			return
		}

		if err := s.signer.Verify(key, r.URL.Query()); err != nil {
			slog.Debug("rejected object request", "key", key, "error", err)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		f, err := s.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, filesmanager.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.Error("open object", "key", key, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Disposition", `inline; filename="`+strings.ReplaceAll(key, `"`, "")+`"`)
		http.ServeContent(w, r, key, info.ModTime(), f)
	})
}
