package filesmanager

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidName validates that a string can be used as a file name and object key.
// It checks that the name:
//   - is not empty, "." or ".."
//   - is at most MaxNameLength bytes
//   - does not contain "/" or "\" (the bucket namespace is flat)
//   - is valid UTF-8
//   - does not contain null bytes or control characters
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > MaxNameLength {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return false
		}
	}

	return true
}

// IsStorableName reports whether an object key fits the name column:
// non-empty, at most MaxNameLength bytes, valid UTF-8 and free of NUL bytes.
// Keys found in the bucket only have to be storable; names chosen by
// clients must also pass IsValidName.
func IsStorableName(name string) bool {
	return name != "" &&
		len(name) <= MaxNameLength &&
		utf8.ValidString(name) &&
		!strings.ContainsRune(name, 0)
}

// Extension returns the text after the last '.' in name, or "" when the
// name has no dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// withExtension joins a base name and an extension taken from another name.
func withExtension(base, from string) string {
	if !strings.Contains(from, ".") {
		return base
	}
	return base + "." + Extension(from)
}

// UploadKey derives the object key for an upload: the custom base name plus
// the original extension when a custom name is given, otherwise the base of
// the original file name.
func UploadKey(req UploadRequest) (string, error) {
	filename := filepath.Base(strings.ReplaceAll(req.Filename, `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("upload key: %w: file name cannot be empty", ErrInvalidInput)
	}

	key := filename
	if custom := strings.TrimSpace(req.CustomName); custom != "" {
		key = withExtension(custom, filename)
	}

	if !IsValidName(key) {
		return "", fmt.Errorf("upload key %q: %w", key, ErrInvalidInput)
	}
	return key, nil
}

// RenameKey derives the new object key for a rename, preserving the
// extension of the current name.
func RenameKey(current, newBase string) (string, error) {
	newBase = strings.TrimSpace(newBase)
	if newBase == "" {
		return "", fmt.Errorf("rename key: %w: name cannot be empty", ErrInvalidInput)
	}

	key := withExtension(newBase, current)
	if !IsValidName(key) {
		return "", fmt.Errorf("rename key %q: %w", key, ErrInvalidInput)
	}
	return key, nil
}
