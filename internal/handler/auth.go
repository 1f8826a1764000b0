package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/mailer"
	"github.com/ngocthuan/blog-api/internal/model"
	"github.com/ngocthuan/blog-api/internal/repository"
	"github.com/ngocthuan/blog-api/internal/token"
	"github.com/ngocthuan/blog-api/internal/utils"
)

// AuthHandler owns the credential flows: signup, login, token refresh and
// the password-reset lifecycle.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *token.Service
	Mail       mailer.Mailer
	Log        *logrus.Logger
	BcryptCost int
	ResetTTL   time.Duration
	MailFrom   string
}

func NewAuthHandler(users *repository.UserRepo, tokens *token.Service, mail mailer.Mailer,
	log *logrus.Logger, bcryptCost int, resetTTL time.Duration, mailFrom string) *AuthHandler {
	return &AuthHandler{
		Users: users, Tokens: tokens, Mail: mail, Log: log,
		BcryptCost: bcryptCost, ResetTTL: resetTTL, MailFrom: mailFrom,
	}
}

// userOut is the public projection of a user. Password, token fields and
// the active flag never leave the API.
type userOut struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Job   string `json:"job,omitempty"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role"`
}

func publicUser(u model.User) userOut {
	return userOut{
		ID: u.ID, Name: u.Name, Email: u.Email,
		Job: u.Job, Photo: u.Photo.String, Role: u.Role,
	}
}

// issuePair signs a fresh access/refresh pair and persists the refresh
// token on the user row, invalidating any previously issued one.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (access, refresh string, err error) {
	access, err = h.Tokens.Issue(u.ID, u.Name, token.Access)
	if err != nil {
		return "", "", err
	}
	refresh, err = h.Tokens.Issue(u.ID, u.Name, token.Refresh)
	if err != nil {
		return "", "", err
	}
	if err = h.Users.SetRefreshToken(ctx, h.Users.DB, u.ID, refresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Job      string `json:"job"`
	Photo    string `json:"photo"`
}

// Signup registers a new account and logs it in immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Job) == "" {
		return apperror.Validation("Please provide name and job")
	}
	if !utils.IsEmail(req.Email) {
		return apperror.Validation("Incorrect email format")
	}
	if !utils.IsStrongPassword(req.Password) {
		return apperror.Validation("Password must contain at least 8 characters, " +
			"one digit, one special character, one uppercase and one lowercase letter")
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return err
	}
	u := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Job:      req.Job,
		Role:     model.RoleUser,
	}
	if req.Photo != "" {
		u.Photo = sql.NullString{String: req.Photo, Valid: true}
	}

	ctx := c.Request().Context()
	err = repository.WithTx(ctx, h.Users.DB, func(tx *sql.Tx) error {
		id, err := h.Users.Create(ctx, tx, &u)
		if err != nil {
			return err
		}
		u.ID = id
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return apperror.Validation("Email address already in use")
		case errors.Is(err, repository.ErrNameExists):
			return apperror.Validation("Name already in use")
		}
		return err
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return successTokens(c, http.StatusCreated, publicUser(u), access, refresh)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.Validation("Please provide email and password")
	}
	if !utils.IsEmail(req.Email) || !utils.IsStrongPassword(req.Password) {
		return apperror.Validation("Incorrect email or password format")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetActiveByEmail(ctx, h.Users.DB, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.Unauthorized("Incorrect email or password")
		}
		return err
	}
	if !utils.VerifyPassword(u.Password, req.Password) {
		return apperror.Unauthorized("Incorrect email or password")
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return successTokens(c, http.StatusOK, publicUser(u), access, refresh)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword stores a hashed single-use reset token on the account and
// mails the raw token. If handing the mail to the queue fails, the stored
// token is cleared again so no orphaned token stays usable.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if !utils.IsEmail(req.Email) {
		return apperror.Validation("Incorrect email format")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetActiveByEmail(ctx, h.Users.DB, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("There is no user with that email address")
		}
		return err
	}

	raw, hash, err := utils.NewResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(h.ResetTTL)
	if err := h.Users.SetResetToken(ctx, h.Users.DB, u.ID, hash, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/auth/resetPassword/%s",
		c.Scheme(), c.Request().Host, raw)
	msg := mailer.Message{
		To:      u.Email,
		From:    h.MailFrom,
		Subject: "Your password reset token (valid for 10 minutes)",
		Body: "Forgot your password? Submit a request with your new password to: " +
			resetURL + "\nIf you didn't forget your password, please ignore this email.",
	}
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.Log.WithError(err).WithField("user", u.ID).Error("reset mail dispatch failed")
		// Compensating cleanup; best effort, the request already failed.
		if cerr := h.Users.ClearResetToken(context.WithoutCancel(ctx), h.Users.DB, u.ID); cerr != nil {
			h.Log.WithError(cerr).WithField("user", u.ID).Error("reset token cleanup failed")
		}
		return apperror.Delivery("There was an error sending the email. Try again later!")
	}

	return successMessage(c, http.StatusOK, "Token sent to email!")
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword consumes a raw reset token from the URL, sets the new
// password and logs the user in. The token is single use: the matching
// lookup and the clearing update make a second attempt fail.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if !utils.IsStrongPassword(req.Password) {
		return apperror.Validation("Password must contain at least 8 characters, " +
			"one digit, one special character, one uppercase and one lowercase letter")
	}

	pwHash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return err
	}

	// Lookup and update share one transaction: the row lock taken by the
	// lookup guarantees at most one reset succeeds per issued token.
	ctx := c.Request().Context()
	hash := utils.HashToken(c.Param("token"))
	var u model.User
	err = repository.WithTx(ctx, h.Users.DB, func(tx *sql.Tx) error {
		var err error
		u, err = h.Users.GetByResetToken(ctx, tx, hash)
		if err != nil {
			return err
		}
		return h.Users.UpdatePassword(ctx, tx, u.ID, pwHash)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.TokenInvalid(http.StatusBadRequest, "Token is invalid or has expired")
		}
		return err
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return successTokens(c, http.StatusCreated, publicUser(u), access, refresh)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a valid refresh token for a fresh pair. The old
// refresh token is superseded by persisting the new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if req.RefreshToken == "" {
		return apperror.Validation("Please provide refreshToken")
	}

	claims, err := h.Tokens.Verify(req.RefreshToken, token.Refresh)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return apperror.TokenExpired(http.StatusUnauthorized,
				"Refresh token is expired, please log in again")
		}
		return apperror.TokenInvalid(http.StatusUnauthorized, "Invalid refresh token")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetActiveByID(ctx, h.Users.DB, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("The user belonging to this token does no longer exist")
		}
		return err
	}
	// Rotation is enforced, not just recorded: only the most recently
	// issued refresh token matches the stored one.
	if !u.RefreshToken.Valid || u.RefreshToken.String != req.RefreshToken {
		return apperror.TokenInvalid(http.StatusUnauthorized, "Invalid refresh token")
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return successTokens(c, http.StatusCreated, publicUser(u), access, refresh)
}
