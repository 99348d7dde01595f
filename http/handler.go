package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/metrics"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// is spooled to disk by net/http.
const multipartMemory = 32 << 20

// Service is the file management API consumed by Handler.
type Service interface {
	Upload(ctx context.Context, req filesmanager.UploadRequest, content io.Reader) (filesmanager.FileRecord, error)
	Rename(ctx context.Context, id int64, newBase string) (filesmanager.FileRecord, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]filesmanager.FileRecord, error)
	Download(ctx context.Context, id int64) (string, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize caps the request body of /upload in bytes. Zero disables the cap.
	MaxUploadSize int64
	// Objects, when set, is mounted at /objects/ to serve signed object URLs
	// (filesystem backend).
	Objects http.Handler
	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool
}

// Handler provides HTTP handlers for file management operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Post("/upload", h.handleUpload)
	r.Put("/rename/{id}", h.handleRename)
	r.Delete("/delete/{id}", h.handleDelete)
	r.Get("/get_files", h.handleList)
	r.Get("/download/{id}", h.handleDownload)

	if h.config.Objects != nil {
		r.Method(http.MethodGet, "/objects/*", h.config.Objects)
		r.Method(http.MethodHead, "/objects/*", h.config.Objects)
	}

	if h.config.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	return r
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			HandleError(w, err)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing_file", "No file part")
		return
	}
	defer func() { _ = file.Close() }()

	req := filesmanager.UploadRequest{
		Filename:   header.Filename,
		CustomName: r.FormValue("customName"),
	}

	rec, err := h.service.Upload(r.Context(), req, file)
	if err != nil {
		HandleError(w, err)
		return
	}
	metrics.RecordUpload(header.Size)

	_ = WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	name := r.FormValue("name")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_name", "Missing name")
		return
	}

	rec, err := h.service.Rename(r.Context(), id, name)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "File deleted"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	url, err := h.service.Download(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, URLResponse{URL: url})
}

// fileID parses the {id} route parameter. A malformed id is reported as
// 404, the same as an id that does not exist.
func fileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
		return 0, false
	}
	return id, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
