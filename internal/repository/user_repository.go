package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ngocthuan/blog-api/internal/model"
)

// UserRepo is the typed access path for the auth flows: credential lookup,
// token rotation and the password-reset lifecycle. The admin CRUD
// endpoints go through the generic Resource instead.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, password, job, photo, role, " +
	"passwordChangedAt, passwordResetToken, passwordResetTokenExpires, " +
	"refreshToken, active, createdAt, updatedAt"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Job, &u.Photo,
		&u.Role, &u.PasswordChangedAt, &u.PasswordResetToken, &u.PasswordResetExp,
		&u.RefreshToken, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The password must already be
// hashed by the caller. Unique violations come back as ErrNameExists or
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, db DBTX, u *model.User) (uint64, error) {
	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (name, email, password, job, photo, role) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(u.Name), normalizeEmail(u.Email), u.Password,
		strings.TrimSpace(u.Job), u.Photo, role)
	if err != nil {
		return 0, duplicateErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetActiveByEmail fetches an active user by normalized email.
func (r *UserRepo) GetActiveByEmail(ctx context.Context, db DBTX, email string) (model.User, error) {
	return scanUser(db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? AND active = TRUE LIMIT 1",
		normalizeEmail(email)))
}

// GetActiveByID fetches an active user by id.
func (r *UserRepo) GetActiveByID(ctx context.Context, db DBTX, id uint64) (model.User, error) {
	return scanUser(db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? AND active = TRUE LIMIT 1", id))
}

// SetRefreshToken stores the latest refresh token for the user, replacing
// any previous one (rotation on every issue).
func (r *UserRepo) SetRefreshToken(ctx context.Context, db DBTX, id uint64, token string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET refreshToken = ? WHERE id = ? AND active = TRUE", token, id)
	return err
}

// SetResetToken stores the hash and expiry of a freshly generated reset
// token. Concurrent requests race on last-write-wins, which is fine: only
// the most recent token should remain valid.
func (r *UserRepo) SetResetToken(ctx context.Context, db DBTX, id uint64, hash string, expires time.Time) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET passwordResetToken = ?, passwordResetTokenExpires = ? WHERE id = ?",
		hash, expires, id)
	return err
}

// ClearResetToken empties the reset-token fields. Used both after a
// successful reset and as the compensating cleanup when mail dispatch
// fails.
func (r *UserRepo) ClearResetToken(ctx context.Context, db DBTX, id uint64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET passwordResetToken = NULL, passwordResetTokenExpires = NULL WHERE id = ?", id)
	return err
}

// GetByResetToken finds the active user whose stored reset-token hash
// matches and whose expiry has not passed. Callers run it on a
// transaction together with the follow-up password update; FOR UPDATE
// locks the row so two concurrent resets cannot both consume the same
// token. sql.ErrNoRows covers a wrong, expired or already-used token
// alike.
func (r *UserRepo) GetByResetToken(ctx context.Context, db DBTX, hash string) (model.User, error) {
	return scanUser(db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE passwordResetToken = ? "+
			"AND passwordResetTokenExpires >= NOW() AND active = TRUE LIMIT 1 FOR UPDATE", hash))
}

// UpdatePassword sets a new password hash, records the change time and
// clears the reset-token fields in one statement so the token cannot be
// replayed.
func (r *UserRepo) UpdatePassword(ctx context.Context, db DBTX, id uint64, hash string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET password = ?, passwordChangedAt = NOW(), "+
			"passwordResetToken = NULL, passwordResetTokenExpires = NULL WHERE id = ?",
		hash, id)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
