package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	svcErr "github.com/unimeet/match-core/internal/errors"
)

// Session is the authenticated caller of a request.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// Claims is the token payload. Supabase access tokens carry the user id in
// "sub" and the role in "role".
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

var (
	ErrInvalidToken = fmt.Errorf("%w: invalid token", svcErr.ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token expired", svcErr.ErrUnauthenticated)
	ErrNoSession    = fmt.Errorf("%w: no session", svcErr.ErrUnauthenticated)
)

// Manager verifies and issues HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Verify parses a raw token (with or without the "Bearer " prefix) into a session.
func (m *Manager) Verify(raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" || len(m.secret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	s := &Session{UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Issue signs a token for userID valid for ttl. Used by the seeder and tests;
// production tokens come from the identity provider.
func (m *Manager) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: "authenticated",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

type ctxKey struct{}

// NewContext stores s in ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// UserID returns the caller id or ErrNoSession.
func UserID(ctx context.Context) (string, error) {
	s, ok := FromContext(ctx)
	if !ok || s.UserID == "" {
		return "", ErrNoSession
	}
	return s.UserID, nil
}
