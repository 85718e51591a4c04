// Package users resolves session identities to stored user records. The
// stored record, not the session payload, is the authority for display
// names and for the admin role.
package users

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

const RoleAdmin = "admin"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName prefers the human name over the login handle.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

type Store interface {
	GetByID(ctx context.Context, userID string) (User, error)
}
