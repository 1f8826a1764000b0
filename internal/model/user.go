// Package model holds the storage-level record types and the enumerations
// shared across repositories and handlers.
package model

import (
	"database/sql"
	"time"
)

// Roles a user account can carry. Stored in users.role and mirrored by the
// static roles reference table.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Roles lists every valid role value.
var Roles = []string{RoleUser, RoleAdmin, RoleModerator}

// User mirrors the `users` table. The password at rest is always a bcrypt
// hash; the reset token is stored only as a SHA-256 digest. Accounts are
// never hard-deleted: Active flips to false instead.
type User struct {
	ID                 uint64
	Name               string
	Email              string
	Password           string // bcrypt hash, never exposed in output
	Job                string
	Photo              sql.NullString
	Role               string
	PasswordChangedAt  sql.NullTime
	PasswordResetToken sql.NullString // sha256 hex of the raw reset token
	PasswordResetExp   sql.NullTime
	RefreshToken       sql.NullString
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Role is a row in the static `roles` reference table, linked to users via
// the user_roles association table.
type Role struct {
	ID   uint8
	Name string
}
