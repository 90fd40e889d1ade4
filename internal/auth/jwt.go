// Package auth verifies bearer tokens and carries the caller identity
// through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthorized is wrapped by every rejected-token error.
var ErrUnauthorized = errors.New("invalid or expired token")

// Verifier resolves an opaque bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Claims mirrors the access tokens minted by the hosted auth provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// JWTVerifier checks HS256 access tokens locally against the provider's
// signing secret.
type JWTVerifier struct {
	Secret []byte
	// Audience is enforced when set.
	Audience string
}

// Parse validates the signature, expiry and audience of tokenString.
func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Verify implements Verifier. The subject must be a UUID.
func (v JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims, err := v.Parse(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if _, err := uuid.Parse(sub); err != nil {
		return Identity{}, fmt.Errorf("%w: subject is not a user id", ErrUnauthorized)
	}
	return Identity{UserID: sub, Email: claims.Email, Role: claims.Role}, nil
}
