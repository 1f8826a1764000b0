package repository

import (
	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/model"
	"github.com/ngocthuan/blog-api/internal/utils"
)

// NewUserResource describes the users table for the generic CRUD engine,
// as used by the admin user endpoints. The password column is writable but
// withheld from every response; the reset/refresh token columns are owned
// by the auth flows and not reachable here at all. BeforeSave hashes the
// password explicitly whenever the payload carries one, so the hashing
// step is visible here rather than hidden in a model hook.
func NewUserResource(bcryptCost int) *Resource {
	return &Resource{
		Name:  "user",
		Table: "users",
		Columns: []Column{
			{Name: "name", Kind: KindString, Required: true},
			{Name: "email", Kind: KindString, Required: true, Check: checkEmail},
			{Name: "password", Kind: KindString, Required: true, Check: checkPassword},
			{Name: "job", Kind: KindString, Required: true},
			{Name: "photo", Kind: KindString},
			{Name: "role", Kind: KindString, Enum: model.Roles, Default: model.RoleUser},
		},
		Exclude: []string{"password"},
		BeforeSave: func(payload Row) error {
			plain, ok := payload["password"].(string)
			if !ok {
				return nil
			}
			hash, err := utils.HashPassword(plain, bcryptCost)
			if err != nil {
				return err
			}
			payload["password"] = hash
			return nil
		},
	}
}

func checkEmail(v any) error {
	if s, ok := v.(string); ok && utils.IsEmail(s) {
		return nil
	}
	return apperror.Validation("Incorrect email format")
}

func checkPassword(v any) error {
	if s, ok := v.(string); ok && utils.IsStrongPassword(s) {
		return nil
	}
	return apperror.Validation("Password must be at least 8 characters with one digit, one symbol, one uppercase and one lowercase letter")
}
