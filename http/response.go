package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lista5/filesmanager"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is the body of successful operations without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// URLResponse is the body of /download.
type URLResponse struct {
	URL string `json:"url"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
//
// Object store failures map to 502 with the failure kind as error code,
// except for missing objects which are 404 like missing records.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if isTooLarge(err) {
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds the size limit")
		return
	}

	if errors.Is(err, filesmanager.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if errors.Is(err, filesmanager.ErrConflict) {
		WriteError(w, http.StatusConflict, "conflict", err.Error())
		return
	}

	if errors.Is(err, filesmanager.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
		return
	}

	if kind := filesmanager.StoreErrorKind(err); kind != nil {
		WriteError(w, http.StatusBadGateway, storeErrorCode(kind), err.Error())
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

func storeErrorCode(kind error) string {
	switch {
	case errors.Is(kind, filesmanager.ErrCredentialsMissing):
		return "credentials_missing"
	case errors.Is(kind, filesmanager.ErrAccessDenied):
		return "access_denied"
	case errors.Is(kind, filesmanager.ErrUploadFailed):
		return "upload_failed"
	case errors.Is(kind, filesmanager.ErrListFailed):
		return "list_failed"
	case errors.Is(kind, filesmanager.ErrSignFailed):
		return "sign_failed"
	case errors.Is(kind, filesmanager.ErrRenameFailed):
		return "rename_failed"
	case errors.Is(kind, filesmanager.ErrDeleteFailed):
		return "delete_failed"
	default:
		return "store_error"
	}
}
