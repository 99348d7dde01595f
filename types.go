package filesmanager

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	// MaxNameLength bounds FileRecord.Name (and therefore object keys).
	MaxNameLength = 255
	// MaxURLLength bounds FileRecord.URL.
	MaxURLLength = 2048
	// DefaultURLTTL is the lifetime of a signed read URL.
	DefaultURLTTL = time.Hour
)

// FileRecord is the local metadata entry for one stored object.
type FileRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// StoreObject is one object as reported by the object store listing.
type StoreObject struct {
	Key string
	// URL is the public, non-expiring base URL for the key.
	URL string
}

// NewFile is a record that has not been assigned an ID yet.
type NewFile struct {
	Name string
	URL  string
}

// URLUpdate replaces the signed URL of an existing record.
type URLUpdate struct {
	ID  int64
	URL string
}

// Changeset is the set of writes produced by one reconciliation pass.
// Repositories apply it as a single transaction.
type Changeset struct {
	Inserts []NewFile
	Updates []URLUpdate
	Deletes []int64
}

// IsEmpty reports whether the changeset carries no writes.
func (c Changeset) IsEmpty() bool {
	return len(c.Inserts) == 0 && len(c.Updates) == 0 && len(c.Deletes) == 0
}

// SyncReport summarises a reconciliation pass.
type SyncReport struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// UploadRequest describes an incoming upload.
type UploadRequest struct {
	// Filename is the client-side file name, used for the extension and,
	// without CustomName, as the object key.
	Filename string
	// CustomName optionally replaces the base name; the extension of
	// Filename is preserved.
	CustomName string
}

// Tables holds configurable table names for metadata storage.
type Tables struct {
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	if !IsValidTableName(t.Files) {
		return fmt.Errorf("validate tables: invalid files table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Files)
	}

	return nil
}
