package model

import "time"

// Role is a local authorization level. It is stored on our side and never read
// from the identity token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the local record for an external identity.
//
// ID is the identity token's subject (the backend's user UUID), so the same
// person always maps to the same row. Email and Name are refreshed from the
// token on every upsert; Role is only ever changed on our side.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Email     string    `json:"email"     db:"email"`
	Name      string    `json:"name"      db:"name"`
	Role      Role      `json:"role"      db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
