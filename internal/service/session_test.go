package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/forgesite/auth-service/internal/models"
	"github.com/forgesite/auth-service/internal/repo"
	"github.com/forgesite/auth-service/pkg/hash"
	"github.com/forgesite/auth-service/pkg/tokens"
)

var (
	testAccessSecret  = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.PasswordResetToken{}))
	return db
}

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()

	return &SessionService{
		Repo:          repo.GormRepo{DB: newTestDB(t)},
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     "15m",
		RefreshTTL:    "7d",
	}
}

func TestSessionService_Register(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Nil(t, user.LastLogin)

	_, err = svc.Register(ctx, "alice@example.com", "another-secret")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSessionService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "secret123"},
		{name: "empty password", email: "alice@example.com", password: ""},
		{name: "short password", email: "alice@example.com", password: "short"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSessionService_Login(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.NotNil(t, res.User)
	assert.Equal(t, registered.ID, res.User.ID)
	assert.NotNil(t, res.User.LastLogin)

	claims, err := tokens.Parse(res.AccessToken, testAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), claims.UserID)

	// The refresh token is stored hashed, never raw.
	var row models.RefreshToken
	require.NoError(t, svc.Repo.DB.First(&row).Error)
	assert.Equal(t, hash.Sha256Hex(res.RefreshToken), row.Token)
	assert.NotEqual(t, res.RefreshToken, row.Token)
	assert.Equal(t, registered.ID, row.UserID)
}

func TestSessionService_Login_BadTTLIsConfigError(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	svc.AccessTTL = "soon"
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSessionService_Refresh_RotatesOnce(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	claims, err := tokens.Parse(rotated.AccessToken, testAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), claims.UserID)

	// Replay of the redeemed token always fails, even within its TTL.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionService_Refresh_ChainPreservesUser(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	current := login.RefreshToken
	for i := 0; i < 3; i++ {
		res, err := svc.Refresh(ctx, current)
		require.NoError(t, err)

		claims, err := tokens.Parse(res.AccessToken, testAccessSecret)
		require.NoError(t, err)
		assert.Equal(t, registered.ID.String(), claims.UserID)

		current = res.RefreshToken
	}
}

func TestSessionService_Refresh_UnknownToken(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionService_Refresh_ExpiredTokenPurgedOnTouch(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	raw, err := tokens.IssueRefresh(registered.ID.String(), testRefreshSecret, time.Hour)
	require.NoError(t, err)
	row := models.RefreshToken{
		Token:     hash.Sha256Hex(raw),
		UserID:    registered.ID,
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	require.NoError(t, svc.Repo.InsertRefreshToken(ctx, &row))

	_, err = svc.Refresh(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	var count int64
	require.NoError(t, svc.Repo.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Zero(t, count, "expired row must be purged on first use")

	// Identical rejection on the second attempt, no resurrection.
	_, err = svc.Refresh(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionService_Refresh_TamperedTokenBurnsRow(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	// A live row whose value was not signed by us: the store lookup
	// passes but the signature check must burn it.
	forged, err := tokens.IssueRefresh(registered.ID.String(), []byte("attacker-secret"), time.Hour)
	require.NoError(t, err)
	row := models.RefreshToken{
		Token:     hash.Sha256Hex(forged),
		UserID:    registered.ID,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, svc.Repo.InsertRefreshToken(ctx, &row))

	_, err = svc.Refresh(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	var count int64
	require.NoError(t, svc.Repo.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionService_Logout_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	// A logged-out token is no longer redeemable.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionService_Profile(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	user, err := svc.Profile(ctx, registered.ID.String())
	require.NoError(t, err)
	assert.Equal(t, registered.Email, user.Email)

	_, err = svc.Profile(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Profile(ctx, "00000000-0000-0000-0000-000000000001")
	assert.ErrorIs(t, err, ErrNotFound)
}
