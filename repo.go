package filesmanager

import (
	"context"
	"time"
)

// FileRepo defines the interface for file record persistence.
//
// All methods accept a context for cancellation and timeout control.
type FileRepo interface {
	// Get retrieves a record by ID.
	//
	// Returns ErrNotFound if the ID does not exist.
	Get(ctx context.Context, id int64) (FileRecord, error)

	// GetByName retrieves a record by its name.
	//
	// Returns ErrNotFound if no record holds the name.
	GetByName(ctx context.Context, name string) (FileRecord, error)

	// Create inserts a new record and returns it with its assigned ID.
	// If a record with the same name exists, its URL is replaced and the
	// existing record is returned instead.
	Create(ctx context.Context, f NewFile) (FileRecord, error)

	// Update overwrites name and URL of an existing record.
	//
	// Returns ErrNotFound if the ID does not exist and ErrConflict if the
	// name is held by another record.
	Update(ctx context.Context, rec FileRecord) error

	// Delete removes a record by ID.
	//
	// Returns ErrNotFound if the ID does not exist.
	Delete(ctx context.Context, id int64) error

	// List returns every record ordered by ID.
	List(ctx context.Context) ([]FileRecord, error)

	// Apply commits all inserts, updates and deletes of the changeset in a
	// single transaction. Either every write is applied or none is.
	Apply(ctx context.Context, cs Changeset) error
}

// ObjectStore is the gateway to the remote object store. Implementations
// are bound to one bucket at construction.
//
// Every error returned is a *StoreError carrying one of the store failure
// kinds.
type ObjectStore interface {
	// EnsureBucket creates the bucket if it does not exist.
	// Fails with ErrAccessDenied or ErrUnexpected.
	EnsureBucket(ctx context.Context) error

	// PutObject uploads the file at localPath under key and returns the
	// public base URL of the object.
	// Fails with ErrCredentialsMissing or ErrUploadFailed.
	PutObject(ctx context.Context, localPath, key string) (string, error)

	// ListObjects returns every object a single listing call reports.
	// Fails with ErrListFailed.
	ListObjects(ctx context.Context) ([]StoreObject, error)

	// SignedReadURL returns a URL granting read access to key for ttl.
	// Fails with ErrSignFailed.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// RenameObject copies oldKey to newKey and then deletes oldKey. It is
	// not atomic: a failed delete leaves both keys in place.
	// Fails with ErrRenameFailed.
	RenameObject(ctx context.Context, oldKey, newKey string) error

	// DeleteObject removes key. A missing key may surface as an error.
	// Fails with ErrDeleteFailed.
	DeleteObject(ctx context.Context, key string) error
}
