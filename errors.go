package filesmanager

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record, object or bucket does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a name is already held by another record
	ErrConflict = errors.New("conflict")
)

// Object store failure kinds. A *StoreError matches exactly one of these
// through errors.Is.
var (
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrAccessDenied       = errors.New("access denied")
	ErrUploadFailed       = errors.New("upload failed")
	ErrListFailed         = errors.New("list failed")
	ErrSignFailed         = errors.New("sign failed")
	ErrRenameFailed       = errors.New("rename failed")
	ErrDeleteFailed       = errors.New("delete failed")
	ErrUnexpected         = errors.New("unexpected store error")
)

// StoreError describes a failed object store operation.
//
// Kind is one of the Err* kinds above. Err is the provider error, reachable
// with errors.As (for example a smithy.APIError from the S3 backend).
type StoreError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

// NewStoreError builds a StoreError. A nil kind is treated as ErrUnexpected.
func NewStoreError(op, key string, kind, err error) *StoreError {
	if kind == nil {
		kind = ErrUnexpected
	}
	return &StoreError{Op: op, Key: key, Kind: kind, Err: err}
}

func (e *StoreError) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StoreErrorKind returns the failure kind carried by err, or nil when err
// does not come from the object store.
func StoreErrorKind(err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}
