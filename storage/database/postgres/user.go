package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/user"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

type userRepository struct {
	q sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := repo.q.ExecContext(ctx, `
		INSERT INTO "user" (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		usr.ID, usr.Name, usr.Email, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (usr user.User, err error) {
	err = sqlx.GetContext(ctx, repo.q, &usr, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
	return usr, notFound(err, user.ErrNotFound)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (usr user.User, err error) {
	err = sqlx.GetContext(ctx, repo.q, &usr, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, email)
	return usr, notFound(err, user.ErrNotFound)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := execOne(ctx, repo.q, user.ErrNotFound, `
		UPDATE "user" SET name = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $1`,
		usr.ID, usr.Name, usr.Email, usr.PasswordHash, usr.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return execOne(ctx, repo.q, user.ErrNotFound, `UPDATE "user" SET last_login = $2 WHERE id = $1`, id, at)
}
