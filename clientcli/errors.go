package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) URL")
)

// Errors for input validation.
var (
	ErrNoIDs     = errors.New("no file ids provided")
	ErrEmptyPath = errors.New("path is required")
	ErrEmptyName = errors.New("name is required")
	ErrInvalidID = errors.New("file id must be a positive integer")
)
