package clientcli

// FileInfo is one file record as returned by the server.
type FileInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	// CustomName replaces the base name on the server; the local file's
	// extension is kept.
	CustomName string
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size_bytes"`
	FileInfo
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	ID        int64
	LocalPath string // empty = derive from the signed URL, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	ID          int64  `json:"id"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []int64
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
	Err     error `json:"-"` // nil on success
}

// serverError mirrors the JSON error body written by the server.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
