package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/commonground-app/commonground/internal/types"
)

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func Test_extractToken(t *testing.T) {
	t.Run("authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "sometoken")

		token, err := extractToken(req)
		assert.NoError(t, err)
		assert.Equal(t, "sometoken", token)
	})

	t.Run("bearer prefix is stripped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sometoken")

		token, err := extractToken(req)
		assert.NoError(t, err)
		assert.Equal(t, "sometoken", token)
	})

	t.Run("query parameter fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token=sometoken", nil)

		token, err := extractToken(req)
		assert.NoError(t, err)
		assert.Equal(t, "sometoken", token)
	})

	t.Run("header wins over query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token=querytoken", nil)
		req.Header.Set("Authorization", "Bearer headertoken")

		token, err := extractToken(req)
		assert.NoError(t, err)
		assert.Equal(t, "headertoken", token)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := extractToken(req)
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func Test_verifyToken(t *testing.T) {
	app := &CommonGroundApp{signingKey: []byte("test-signing-key")}
	u := types.User{Id: 7, Name: "test", Email: "test@example.com"}

	t.Run("valid token round trip", func(t *testing.T) {
		token, err := app.createJwtForSession(u, defaultJwtExpiration)
		assert.NoError(t, err, "expected token to be created")

		userId, err := app.verifyToken(token)
		assert.NoError(t, err, "expected token to verify")
		assert.Equal(t, u.Id, userId, "expected identity claim to round trip")
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := app.verifyToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := &CommonGroundApp{signingKey: []byte("other-key")}
		token, err := other.createJwtForSession(u, defaultJwtExpiration)
		assert.NoError(t, err)

		_, err = app.verifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := app.createJwtForSession(u, -time.Hour)
		assert.NoError(t, err)

		_, err = app.verifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token without identity claim", func(t *testing.T) {
		token, err := app.createJwtForSession(types.User{}, defaultJwtExpiration)
		assert.NoError(t, err)

		_, err = app.verifyToken(token)
		assert.ErrorIs(t, err, ErrIncompleteClaim)
	})
}

func Test_hashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("hunter2")
	assert.NoError(t, err, "expected password to hash")
	assert.NotEqual(t, "hunter2", hash, "expected hash to differ from plaintext")

	assert.True(t, verifyPassword(hash, "hunter2"), "expected matching password to verify")
	assert.False(t, verifyPassword(hash, "wrong"), "expected wrong password to fail")
}
