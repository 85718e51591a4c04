package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore serves lookups from a users table:
//
//	users(id text primary key, name text, username text, email text,
//	      role text not null default 'user', password_hash text,
//	      created_at timestamptz not null default now())
type PostgresStore struct {
	DB *pgxpool.Pool
}

func (s PostgresStore) GetByID(ctx context.Context, userID string) (User, error) {
	q := `SELECT id, coalesce(name, ''), username, email, role, created_at FROM users WHERE id = $1 LIMIT 1;`
	var u User
	err := s.DB.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
