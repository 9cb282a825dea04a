package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shossain/streamtube/internal/apperror"
)

// ApiResponse is the envelope every endpoint answers with, success or
// failure. Clients can branch on the `success` flag without inspecting
// the HTTP status.
//
// Success:  {"statusCode":200,"data":{...},"message":"...","success":true}
// Failure:  {"statusCode":404,"message":"...","success":false,"errors":[]}
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiErrorResponse always carries the errors array, even when empty, so
// clients can iterate it unconditionally.
type apiErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// writeJSON sends a success envelope. Headers and status must be written
// before the body; once Encode writes, header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error onto the failure envelope. The service
// layer returns apperror sentinels; this is the single place they become
// HTTP statuses. Unknown errors collapse to a generic 500 so internals
// (SQL, file paths) never reach the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	var details []string

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}
		if status != http.StatusInternalServerError {
			message = appErr.Message
			details = appErr.Details
		}
	}

	if details == nil {
		details = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(apiErrorResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	}); encErr != nil {
		slog.Error("failed to encode JSON error response", slog.String("error", encErr.Error()))
	}
}
