package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/service"
)

// UserHandler serves the caller's own session endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleMe returns the currently authenticated user's record.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth has already resolved and upserted the user)
//
// The frontend calls this on load to learn who is signed in and whether the
// admin screens should be shown.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeResult(w, h.users.Me(r.Context(), userID))
}

// HandleLogout clears the "token" cookie.
//
// HTTP: POST /api/logout
//
// Tokens are issued by the identity backend, so there is nothing to revoke
// here: the token stays valid until it expires, but the browser stops
// sending it.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       map[string]string{"message": "logged out"},
		"statusCode": http.StatusOK,
	})
}
