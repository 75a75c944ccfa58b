package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

	qUserInsert = `
INSERT INTO users (first_name, last_name, email, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns + `;`

	qUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert,
		u.FirstName, u.LastName, u.Email, u.Password, u.Role, u.CreatedAt, u.UpdatedAt)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailExists
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

// GetByEmail matches the stored email exactly (case-sensitive).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		if isNoRows(err) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	return row.Scan(
		&out.ID,
		&out.FirstName,
		&out.LastName,
		&out.Email,
		&out.Password,
		&out.Role,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
}
