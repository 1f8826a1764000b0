// Package token issues and verifies the signed, time-limited JWTs used for
// authentication. Access and refresh tokens are signed with independent
// secrets and lifetimes; the token type is recorded in the subject claim so
// that a token of one type never verifies as the other. The service keeps
// no state between calls.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type tags a token as short-lived access credential or long-lived
// refresh credential.
type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

var (
	// ErrExpired is returned when a token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned on signature, format or type mismatch.
	ErrInvalid = errors.New("token invalid")
)

// Claims carries the user identity inside a token.
type Claims struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TypeConfig is the signing configuration for one token type.
type TypeConfig struct {
	Secret string
	TTL    time.Duration
}

// Service signs and verifies tokens. Construct it with New; both token
// types must have a secret configured.
type Service struct {
	cfgs map[Type]TypeConfig
}

// New builds a Service. A missing secret for either type is a
// configuration error; callers treat it as fatal at startup.
func New(access, refresh TypeConfig) (*Service, error) {
	cfgs := map[Type]TypeConfig{Access: access, Refresh: refresh}
	for typ, cfg := range cfgs {
		if cfg.Secret == "" {
			return nil, fmt.Errorf("no secret configured for %s tokens", typ)
		}
		if cfg.TTL <= 0 {
			return nil, fmt.Errorf("non-positive TTL for %s tokens", typ)
		}
	}
	return &Service{cfgs: cfgs}, nil
}

// Issue signs an HS256 token of the given type for the user. The subject
// claim records the type; issued-at and expiry are set from the type's
// configuration.
func (s *Service) Issue(id uint64, name string, typ Type) (string, error) {
	cfg, ok := s.cfgs[typ]
	if !ok {
		return "", fmt.Errorf("unknown token type %q", typ)
	}
	now := time.Now().UTC()
	claims := Claims{
		ID:   id,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(typ),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.Secret))
}

// Verify checks signature and expiry against the configuration for the
// given type and returns the embedded claims. Expiry is reported as
// ErrExpired; every other failure, including a subject recorded for a
// different type, is ErrInvalid.
func (s *Service) Verify(raw string, typ Type) (*Claims, error) {
	cfg, ok := s.cfgs[typ]
	if !ok {
		return nil, fmt.Errorf("unknown token type %q", typ)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if claims.Subject != string(typ) {
		return nil, ErrInvalid
	}
	return &claims, nil
}
