package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"messaging-service/internal/repositories"
)

// ErrAnonymous is returned for any token that does not resolve to a known
// user. Callers must treat it as deny, never as a partial identity.
var ErrAnonymous = errors.New("anonymous principal")

// Principal is the authenticated identity attached to a connection or request.
type Principal struct {
	ID         int
	Username   string
	ProfileImg string
}

// Resolver turns a bearer token into a Principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// JWTResolver verifies HS256 access tokens and looks up the user behind the
// user_id claim. Read-only; it has no side effects.
type JWTResolver struct {
	secret []byte
	users  repositories.UserRepository
}

// NewJWTResolver constructs a JWTResolver.
func NewJWTResolver(secret string, users repositories.UserRepository) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), users: users}
}

// Resolve validates signature and expiry, then resolves the user. Every
// failure path collapses to ErrAnonymous.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrAnonymous
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrAnonymous
	}

	rawID, ok := claims["user_id"]
	if !ok {
		return Principal{}, ErrAnonymous
	}
	userID, ok := claimToInt(rawID)
	if !ok || userID == 0 {
		return Principal{}, ErrAnonymous
	}

	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return Principal{}, ErrAnonymous
	}
	return Principal{ID: user.ID, Username: user.Username, ProfileImg: user.ProfileImg}, nil
}

func claimToInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
