package http

import (
	"log/slog"
	"net/http"

	"github.com/carlajeanne/plantpal-backend/internal/service"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
	pkgmiddleware "github.com/carlajeanne/plantpal-backend/pkg/middleware"
)

// UserHandler exposes authenticated account endpoints.
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(auth *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: auth, logger: logger}
}

// Me handles GET /api/v1/users/me, returning the caller's own account.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := pkgmiddleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, h.logger, apperrors.Unauthorized("missing identity in request context"))
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// List handles GET /api/v1/users. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(users),
		"users": users,
	})
}
