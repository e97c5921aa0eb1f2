package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/commonground-app/commonground/internal/types"
)

const defaultJwtExpiration = time.Hour * 24

// Token verification failures. All of them answer 401 to the caller; they
// are typed so logs can tell a missing credential from a bad signature from
// a token that verified but carries no identity.
var (
	ErrMissingToken    = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid token")
	ErrIncompleteClaim = errors.New("token missing user id claim")
)

const (
	userIdClaim = "user-id"
	expClaim    = "exp"
)

type contextKey string

const userIdKey contextKey = "user-id"

func WithUserId(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func UserId(ctx context.Context) (int, bool) {
	userId, ok := ctx.Value(userIdKey).(int)

	return userId, ok
}

// extractToken pulls the bearer credential from the Authorization header,
// falling back to the token query parameter used by websocket handshakes,
// where clients cannot set headers.
func extractToken(r *http.Request) (string, error) {
	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")

	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}

func (s *CommonGroundApp) createJwtForSession(user types.User, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim: user.Id,
		expClaim:    time.Now().Add(exp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

// verifyToken validates the token's signature and expiry against the
// server's signing key and returns the identity claim. A pure function of
// the token, the key and the clock.
func (s *CommonGroundApp) verifyToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok || int(userId) == 0 {
		return 0, ErrIncompleteClaim
	}

	return int(userId), nil
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}
