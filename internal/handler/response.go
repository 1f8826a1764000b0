// Package handler implements the HTTP layer: request binding, the auth
// flows, the generic resource CRUD endpoints and the JSON response
// envelope shared by all of them.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/query"
)

// envelope is the response body shape for every endpoint:
// {status: "success"|"error", data?, message?}.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Status: "success", Data: data})
}

func successMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Status: "success", Message: msg})
}

// tokenEnvelope is the auth-flow response: the envelope plus the issued
// token pair at the top level.
type tokenEnvelope struct {
	Status       string `json:"status"`
	Data         any    `json:"data,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func successTokens(c echo.Context, status int, data any, access, refresh string) error {
	return c.JSON(status, tokenEnvelope{
		Status: "success", Data: data, AccessToken: access, RefreshToken: refresh,
	})
}

// NewErrorHandler converts errors into the JSON envelope. Domain errors
// keep their status and message; unrecognized failures surface as a
// generic 500 without leaking internals.
func NewErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "Something went wrong"

		var appErr *apperror.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			msg = appErr.Message
		case errors.Is(err, query.ErrInvalidQuery):
			status = http.StatusBadRequest
			msg = err.Error()
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if s, ok := httpErr.Message.(string); ok {
				msg = s
			}
		default:
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
			}).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, envelope{Status: "error", Message: msg})
	}
}
