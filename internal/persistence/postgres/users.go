package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tarushsinha/ATHOS/internal/identity"
)

const userColumns = `user_id, email, name, birth_year, birth_month, password_hash, created_at`

// CreateUser implements identity.UserStore.
func (r *Repository) CreateUser(ctx context.Context, user identity.User) (*identity.User, error) {
	const stmt = `INSERT INTO users (email, name, birth_year, birth_month, password_hash, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$6) RETURNING user_id`

	err := r.pool.QueryRow(ctx, stmt, user.Email, user.Name, user.BirthYear, user.BirthMonth, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindUserByEmail implements identity.UserStore.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

// GetUser implements identity.UserStore.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*identity.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
}

func (r *Repository) findUser(ctx context.Context, query string, arg any) (*identity.User, error) {
	var u identity.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.BirthYear, &u.BirthMonth, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
