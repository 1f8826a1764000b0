package repository

import (
	"errors"
	"strings"
)

// ErrNameExists and ErrEmailExists distinguish the two unique constraints
// on the users table so handlers can report which field collided.
var (
	ErrNameExists  = errors.New("name already exists")
	ErrEmailExists = errors.New("email already exists")
)

// duplicateErr maps a MySQL duplicate-entry failure (error 1062) to the
// matching sentinel, or returns err unchanged.
func duplicateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrNameExists
}
