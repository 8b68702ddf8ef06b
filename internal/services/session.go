package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionDuration is how long an issued token stays valid.
const SessionDuration = time.Hour

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"userId"`
}

// TokenIssuer signs and verifies stateless HS256 session tokens. There is no
// server-side session table; a token is valid until it expires.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. An empty secret is an
// error: tokens are never signed with a default key.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    SessionDuration,
		now:    time.Now,
	}, nil
}

// Issue mints a token for userID expiring SessionDuration from now.
func (t *TokenIssuer) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user id.
// All failures wrap ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (uuid.UUID, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims.UserID, nil
}
