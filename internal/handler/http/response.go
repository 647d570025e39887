package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
	pkgvalidator "github.com/carlajeanne/plantpal-backend/pkg/validator"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an error to its HTTP status and JSON body. AppErrors keep
// their code and message; anything else becomes an opaque 500 so internal
// details never reach the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Error("request failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Code:    "UNAVAILABLE",
			Message: "service temporarily unavailable",
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", slog.Any("error", err))
		}
		writeJSON(w, appErr.Status, errorResponse{Code: appErr.Code, Message: appErr.Message})
		return
	}

	var valErr *pkgvalidator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "VALIDATION_FAILED",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		writeJSON(w, status, errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"})
		return
	}

	writeJSON(w, status, errorResponse{Code: "ERROR", Message: err.Error()})
}

// decodeJSON decodes the request body into dst. Unknown fields are ignored;
// clients may send richer payloads than a handler reads. Trailing garbage
// after the object is still rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid JSON request body")
	}
	if dec.More() {
		return apperrors.InvalidInput("request body must contain a single JSON object")
	}
	return nil
}
