package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/auth"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Empty(t, resp.User.PasswordHash) // never leaves the service
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Bearer", resp.TokenType)

	// Registration sets up the default shelves.
	shelves, err := env.shelves.ListShelves(t.Context(), resp.User.ID)
	require.NoError(t, err)
	require.Len(t, shelves, len(domain.DefaultShelfNames))

	names := make([]string, len(shelves))
	for i, sh := range shelves {
		names[i] = sh.Name
	}
	assert.ElementsMatch(t, domain.DefaultShelfNames, names)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	req := RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	}
	_, err := env.auth.Register(t.Context(), req)
	require.NoError(t, err)

	_, err = env.auth.Register(t.Context(), req)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	// Email uniqueness is case-insensitive.
	req.Email = "ADA@example.com"
	_, err = env.auth.Register(t.Context(), req)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "long enough pw", DisplayName: "A"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", DisplayName: "A"}},
		{"missing display name", RegisterRequest{Email: "a@example.com", Password: "long enough pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(t.Context(), tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	resp, err := env.auth.Login(t.Context(), LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
		DeviceInfo: auth.DeviceInfo{
			DeviceType: "mobile",
			Platform:   "iOS",
			ClientName: "Shelfmark Mobile",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.False(t, resp.User.LastLoginAt.IsZero())

	// The session records the device.
	session, err := env.store.GetSession(t.Context(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "mobile", session.DeviceType)
	assert.Equal(t, "iOS", session.Platform)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	// Wrong password and unknown email both yield the same error, so a
	// caller cannot probe which addresses are registered.
	_, err = env.auth.Login(t.Context(), LoginRequest{
		Email: "ada@example.com", Password: "wrong password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(t.Context(), LoginRequest{
		Email: "nobody@example.com", Password: "whatever password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefreshTokens_Rotation(t *testing.T) {
	env := newTestEnv(t)

	registered, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshTokens(t.Context(), RefreshRequest{
		RefreshToken: registered.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, registered.SessionID, refreshed.SessionID)

	// The old refresh token was rotated out.
	_, err = env.auth.RefreshTokens(t.Context(), RefreshRequest{
		RefreshToken: registered.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The new one works.
	_, err = env.auth.RefreshTokens(t.Context(), RefreshRequest{
		RefreshToken: refreshed.RefreshToken,
	})
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(t.Context(), resp.SessionID))

	// The session's refresh token is dead.
	_, err = env.auth.RefreshTokens(t.Context(), RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestVerifyAccessToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(t.Context(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	_, _, err = env.auth.VerifyAccessToken(t.Context(), "garbage-token")
	assert.Error(t, err)
}
