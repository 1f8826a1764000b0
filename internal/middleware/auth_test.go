package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/model"
	"github.com/ngocthuan/blog-api/internal/repository"
	"github.com/ngocthuan/blog-api/internal/token"
)

func testContext(auth string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func newTokenService(t *testing.T, accessTTL time.Duration) *token.Service {
	t.Helper()
	s, err := token.New(
		token.TypeConfig{Secret: "access-secret", TTL: accessTTL},
		token.TypeConfig{Secret: "refresh-secret", TTL: time.Hour},
	)
	require.NoError(t, err)
	return s
}

func appErr(t *testing.T, err error) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := err.(*apperror.Error)
	require.True(t, ok, "expected *apperror.Error, got %T", err)
	return ae
}

func TestProtectRequiresBearerHeader(t *testing.T) {
	gate := Protect(newTokenService(t, time.Minute), nil)
	next := func(c echo.Context) error { return nil }

	for _, auth := range []string{"", "Basic abc", "Bearer"} {
		err := gate(next)(testContext(auth))
		ae := appErr(t, err)
		assert.Equal(t, http.StatusUnauthorized, ae.Status)
		assert.Equal(t, apperror.CodeUnauthorized, ae.Code)
	}
}

func TestProtectExpiredTokenPointsAtRefresh(t *testing.T) {
	tokens := newTokenService(t, time.Nanosecond)
	raw, err := tokens.Issue(7, "Ann", token.Access)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	gate := Protect(tokens, nil)
	gotErr := gate(func(c echo.Context) error { return nil })(testContext("Bearer " + raw))

	ae := appErr(t, gotErr)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, apperror.CodeTokenExpired, ae.Code)
	assert.Contains(t, ae.Message, "refreshToken")
}

func TestProtectRejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	tokens := newTokenService(t, time.Minute)
	raw, err := tokens.Issue(7, "Ann", token.Refresh)
	require.NoError(t, err)

	gate := Protect(tokens, nil)
	gotErr := gate(func(c echo.Context) error { return nil })(testContext("Bearer " + raw))

	ae := appErr(t, gotErr)
	assert.Equal(t, apperror.CodeTokenInvalid, ae.Code)
}

func TestProtectLoadsUserAndCallsNext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tokens := newTokenService(t, time.Minute)
	raw, err := tokens.Issue(7, "Ann", token.Access)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND active = TRUE LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "job",
			"photo", "role", "passwordChangedAt", "passwordResetToken",
			"passwordResetTokenExpires", "refreshToken", "active", "createdAt", "updatedAt"}).
			AddRow(7, "Ann", "ann@example.com", "hash", "writer", nil, "admin",
				nil, nil, nil, nil, true, now, now))

	var seen *model.User
	gate := Protect(tokens, repository.NewUserRepo(db))
	err = gate(func(c echo.Context) error {
		seen = CurrentUser(c)
		return nil
	})(testContext("Bearer " + raw))

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(7), seen.ID)
	assert.Equal(t, "admin", seen.Role)
}

func TestProtectDeletedUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tokens := newTokenService(t, time.Minute)
	raw, err := tokens.Issue(7, "Ann", token.Access)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND active = TRUE LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	gate := Protect(tokens, repository.NewUserRepo(db))
	gotErr := gate(func(c echo.Context) error { return nil })(testContext("Bearer " + raw))

	ae := appErr(t, gotErr)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Contains(t, ae.Message, "does no longer exist")
}

func TestRestrictTo(t *testing.T) {
	next := func(c echo.Context) error { return nil }
	gate := RestrictTo(model.RoleAdmin)

	c := testContext("")
	c.Set("currentUser", &model.User{ID: 7, Role: model.RoleUser})
	ae := appErr(t, gate(next)(c))
	assert.Equal(t, http.StatusForbidden, ae.Status)

	c = testContext("")
	c.Set("currentUser", &model.User{ID: 7, Role: model.RoleAdmin})
	assert.NoError(t, gate(next)(c))

	// no Protect in the chain at all
	ae = appErr(t, gate(next)(testContext("")))
	assert.Equal(t, http.StatusForbidden, ae.Status)
}
