package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

type UserStore struct {
	db *DB
}

// Upsert inserts the user keyed by the identity subject, or refreshes email and
// name when the row already exists. A stored admin role is never downgraded by
// a later upsert; an incoming admin role promotes. After the write the row is
// read back so user carries the canonical role and timestamps.
func (s *UserStore) Upsert(ctx context.Context, user *model.User) error {
	user.UpdatedAt = stamp(user.UpdatedAt)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}
	user.CreatedAt = stamp(user.CreatedAt)
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.db.exec(ctx, tx,
			`INSERT INTO users (id, email, name, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE
			 SET email = excluded.email,
			     name = excluded.name,
			     updated_at = excluded.updated_at,
			     role = CASE WHEN excluded.role = 'admin' THEN 'admin' ELSE users.role END`,
			user.ID, user.Email, user.Name, string(user.Role), user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return translate(err, "upserting user "+user.ID, "user conflict")
		}

		stored, err := s.getUser(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		*user = *stored
		return nil
	})
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, s.db.conn, id)
}

func (s *UserStore) getUser(ctx context.Context, q querier, id string) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := s.db.queryRow(ctx, q,
		`SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "user", id, fmt.Sprintf("getting user %s", id))
	}
	u.Role = model.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
