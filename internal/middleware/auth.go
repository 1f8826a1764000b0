// Package middleware provides the request gates applied in front of
// handlers: bearer-token authentication, role checks, pagination mapping
// and rate limiting.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/model"
	"github.com/ngocthuan/blog-api/internal/repository"
	"github.com/ngocthuan/blog-api/internal/token"
)

// userKey is the context key the resolved user is stored under.
const userKey = "currentUser"

// Protect returns a gate requiring a well-formed bearer access token. On
// success the still-existing, active user is attached to the request
// context for downstream authorization.
func Protect(tokens *token.Service, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperror.Unauthorized("You are not logged in! Please log in to get access")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := tokens.Verify(raw, token.Access)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					return apperror.TokenExpired(http.StatusUnauthorized,
						"Token is expired, please use refreshToken to generate new accessToken")
				}
				return apperror.TokenInvalid(http.StatusUnauthorized, "Invalid access token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetActiveByID(ctx, users.DB, claims.ID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperror.Unauthorized("The user belonging to this token does no longer exist")
				}
				return err
			}

			c.Set(userKey, &u)
			return next(c)
		}
	}
}

// RestrictTo returns a gate requiring the authenticated user's role to be
// one of the allowed roles. It assumes Protect ran earlier in the chain.
func RestrictTo(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil || !allowed[u.Role] {
				return apperror.Forbidden("You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by Protect, or nil.
func CurrentUser(c echo.Context) *model.User {
	if u, ok := c.Get(userKey).(*model.User); ok {
		return u
	}
	return nil
}
