package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/agrodesk/internal/model"
)

const userColumns = "id,email,name,password_hash,roles,area,created_at,updated_at"

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an already hashed password and returns the
// stored record. A duplicate email yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	ts := now()
	var area sql.NullString
	if u.Area != "" {
		area = sql.NullString{String: u.Area, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email,name,password_hash,roles,area,created_at,updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.Name, u.PasswordHash, model.EncodeRoles(u.Roles), area, ts, ts)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("insert user id: %w", err)
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = ts, ts
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		roles string
		area  sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &roles, &area, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, notFound(err)
	}
	u.Roles = model.DecodeRoles(roles)
	u.Area = area.String
	return u, nil
}
