package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/cache"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// contextKey is package-private so no other package can read or shadow the
// user stored in a request context.
type contextKey string

const userKey contextKey = "user"

// Resolver maps a verified token to the local user record.
//
// The first request from a subject upserts its users row; the result is kept
// in the injected cache so later requests skip the database until the entry
// expires. Emails listed as admin emails are promoted to the admin role on
// upsert. Roles are never read from the token.
type Resolver struct {
	tokens *TokenService
	users  repository.UserRepository
	cache  cache.Cache
	admins map[string]bool
	log    *slog.Logger
	now    func() time.Time
}

// NewResolver wires a Resolver. A nil cache disables caching.
func NewResolver(tokens *TokenService, users repository.UserRepository, c cache.Cache, adminEmails []string, log *slog.Logger) *Resolver {
	if c == nil {
		c = cache.Nop{}
	}
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		cache:  c,
		admins: admins,
		log:    log,
		now:    time.Now,
	}
}

func userCacheKey(subject string) string {
	return "user:" + subject
}

// Resolve verifies tokenStr and returns the user it identifies. An invalid
// token is an Unauthorized error; a store failure is returned as is.
func (r *Resolver) Resolve(ctx context.Context, tokenStr string) (*model.User, error) {
	id, err := r.tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized(err.Error())
	}

	key := userCacheKey(id.Subject)
	if u, ok, err := cache.GetJSON[model.User](ctx, r.cache, key); err != nil {
		r.log.Warn("user cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return &u, nil
	}

	role := model.RoleUser
	if r.admins[strings.ToLower(id.Email)] {
		role = model.RoleAdmin
	}
	u := &model.User{
		ID:        id.Subject,
		Email:     id.Email,
		Name:      id.Name,
		Role:      role,
		UpdatedAt: r.now(),
	}
	if err := r.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("auth: resolving user %s: %w", id.Subject, err)
	}

	if err := cache.SetJSON(ctx, r.cache, key, *u); err != nil {
		r.log.Warn("user cache write failed", slog.String("error", err.Error()))
	}
	return u, nil
}

// RequireAuth rejects requests without a valid token with 401 and stores the
// resolved user in the request context otherwise.
func (r *Resolver) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token := tokenFromRequest(req)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "valid authentication required")
			return
		}
		u, err := r.Resolve(req.Context(), token)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindUnauthorized {
				writeAuthError(w, http.StatusUnauthorized, "valid authentication required")
				return
			}
			r.log.Error("resolving user", slog.String("error", err.Error()))
			writeAuthError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, req.WithContext(WithUser(req.Context(), u)))
	})
}

// OptionalAuth attaches the user when a valid token is present and lets the
// request through anonymously otherwise.
func (r *Resolver) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if token := tokenFromRequest(req); token != "" {
			u, err := r.Resolve(req.Context(), token)
			switch {
			case err == nil:
				req = req.WithContext(WithUser(req.Context(), u))
			case apperror.KindOf(err) != apperror.KindUnauthorized:
				r.log.Warn("resolving optional user", slog.String("error", err.Error()))
			}
		}
		next.ServeHTTP(w, req)
	})
}

// RequireAdmin must run after RequireAuth. Non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		u, ok := UserFromContext(req.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "valid authentication required")
			return
		}
		if !u.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns (nil, false) for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}

// tokenFromRequest prefers the Authorization header and falls back to the
// "token" cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// writeAuthError writes the same envelope shape the handlers use.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"error":      msg,
		"statusCode": status,
	})
}
