package service

import (
	"context"
	"log/slog"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// UserService serves the caller's own profile.
//
// Users are created by the auth middleware on their first authenticated
// request, so there is no create here: by the time a handler runs, the row
// exists.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Me returns the stored record of the authenticated user.
func (s *UserService) Me(ctx context.Context, id string) Result[*model.User] {
	if id == "" {
		return failure[*model.User](s.logger, "get current user", apperror.Unauthorized("valid authentication required"))
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return failure[*model.User](s.logger, "get current user", err)
	}
	return ok(u)
}
