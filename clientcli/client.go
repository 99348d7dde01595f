package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a filesmanager server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload sends a local file to POST /upload as multipart form data.
// The body is streamed; the file is never held in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (UploadResult, error) {
	if opts.LocalPath == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return UploadResult{}, fmt.Errorf("upload %s: is a directory", opts.LocalPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, file, filepath.Base(opts.LocalPath), opts.CustomName))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", pr)
	if err != nil {
		_ = pr.Close()
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var rec FileInfo
	if err := c.do(req, &rec); err != nil {
		_ = pr.Close()
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath: opts.LocalPath,
		Size:      info.Size(),
		FileInfo:  rec,
	}, nil
}

func writeUploadForm(mw *multipart.Writer, content io.Reader, filename, customName string) error {
	if customName != "" {
		if err := mw.WriteField("customName", customName); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}

	return mw.Close()
}

// Rename renames a file, keeping its extension.
func (c *Client) Rename(ctx context.Context, id int64, name string) (FileInfo, error) {
	if id <= 0 {
		return FileInfo{}, fmt.Errorf("rename: %w", ErrInvalidID)
	}
	if strings.TrimSpace(name) == "" {
		return FileInfo{}, fmt.Errorf("rename: %w", ErrEmptyName)
	}

	form := url.Values{"name": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.fileURL("rename", id), strings.NewReader(form.Encode()))
	if err != nil {
		return FileInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var rec FileInfo
	if err := c.do(req, &rec); err != nil {
		return FileInfo{}, err
	}
	return rec, nil
}

// Delete deletes one or more files.
// Continues on error, collecting results for all ids.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.IDs) == 0 {
		return nil, ErrNoIDs
	}

	results := make([]DeleteResult, 0, len(opts.IDs))

	for _, id := range opts.IDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, id))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, id int64) DeleteResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.fileURL("delete", id), http.NoBody)
	if err != nil {
		return DeleteResult{ID: id, Err: fmt.Errorf("create request: %w", err)}
	}

	if err := c.do(req, nil); err != nil {
		return DeleteResult{ID: id, Err: err}
	}

	return DeleteResult{ID: id, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List returns every file. The server reconciles its index with the bucket
// first, so each URL is freshly signed.
func (c *Client) List(ctx context.Context) ([]FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/get_files", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	files := []FileInfo{}
	if err := c.do(req, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadURL returns the signed URL stored for a file.
func (c *Client) DownloadURL(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("download: %w", ErrInvalidID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL("download", id), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("download %d: server returned an empty url", id)
	}
	return body.URL, nil
}

// Download resolves the signed URL of a file and fetches its content.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	signedURL, err := c.DownloadURL(ctx, opts.ID)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		ID:          opts.ID,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = nameFromURL(signedURL)
	}
	if localPath == "" {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("download %d: cannot derive a local file name, pass one explicitly", opts.ID)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// do sends req and decodes a 200 JSON body into out (skipped when out is nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) fileURL(op string, id int64) string {
	return c.endpoint + "/" + op + "/" + strconv.FormatInt(id, 10)
}

// nameFromURL returns the unescaped last path segment of a signed URL.
func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// parseServerError extracts error code and message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	// Code and Message are set when the body is a JSON error response.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the file id does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrConflict is returned when a rename target is held by another file (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}

	// ErrTooLarge is returned when the upload exceeds the server limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}

	// ErrForbidden is returned when a signed URL is rejected (403).
	// This typically means the URL expired; list files to re-sign it.
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrBadGateway is returned when the server failed to reach the object store (502).
	ErrBadGateway = &APIError{StatusCode: http.StatusBadGateway}
)
