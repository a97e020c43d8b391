package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireprep/hireprep/internal/utils"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (AuthService, FenceService) {
	t.Helper()
	fence := NewFenceService(repo, newFakeCache(), nil)
	return NewAuthService(repo, fence, "test-secret"), fence
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	auth, fence := newTestAuthService(t, repo)

	u, err := auth.Register(ctx, "  Jo@Example.COM ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", u.Email)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	token, logged, err := auth.Login(ctx, "jo@example.com", "correct-horse", "laptop-agent")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	// the token carries the fenced session id
	var claims AuthClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	require.NotEmpty(t, claims.SessionID)
	assert.True(t, fence.ValidateSession(ctx, u.ID, claims.SessionID))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	auth, _ := newTestAuthService(t, repo)

	_, err := auth.Register(ctx, "not-an-email", "longenough")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = auth.Register(ctx, "jo@example.com", "short")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = auth.Register(ctx, "jo@example.com", "longenough")
	require.NoError(t, err)
	_, err = auth.Register(ctx, "jo@example.com", "longenough")
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	auth, _ := newTestAuthService(t, repo)

	_, err := auth.Register(ctx, "jo@example.com", "correct-horse")
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "jo@example.com", "wrong-horse", "agent")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	_, _, err = auth.Login(ctx, "nobody@example.com", "whatever", "agent")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestAuthService_SecondLoginRotatesSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	auth, fence := newTestAuthService(t, repo)

	u, err := auth.Register(ctx, "jo@example.com", "correct-horse")
	require.NoError(t, err)

	tok1, _, err := auth.Login(ctx, "jo@example.com", "correct-horse", "laptop")
	require.NoError(t, err)
	tok2, _, err := auth.Login(ctx, "jo@example.com", "correct-horse", "phone")
	require.NoError(t, err)

	sid := func(tok string) string {
		var claims AuthClaims
		_, perr := jwt.ParseWithClaims(tok, &claims, func(tk *jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, perr)
		return claims.SessionID
	}

	assert.False(t, fence.ValidateSession(ctx, u.ID, sid(tok1)), "first login is fenced out")
	assert.True(t, fence.ValidateSession(ctx, u.ID, sid(tok2)))
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	auth, fence := newTestAuthService(t, repo)

	u, err := auth.Register(ctx, "jo@example.com", "correct-horse")
	require.NoError(t, err)
	tok, _, err := auth.Login(ctx, "jo@example.com", "correct-horse", "laptop")
	require.NoError(t, err)

	var claims AuthClaims
	_, err = jwt.ParseWithClaims(tok, &claims, func(tk *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, u.ID))
	assert.False(t, fence.ValidateSession(ctx, u.ID, claims.SessionID))
}
