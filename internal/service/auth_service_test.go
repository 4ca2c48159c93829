package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/repository"
	"github.com/folio-labs/folio/pkg/database"
)

func setupAuthService(t *testing.T, ttl time.Duration) AuthService {
	t.Helper()
	db, err := database.OpenTest()
	require.NoError(t, err)
	return NewAuthService(repository.NewUserRepository(db), "test-secret", ttl)
}

func TestLoginAndVerify(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "s3cure-pass"))

	token, user, err := svc.Login(ctx, "admin", "s3cure-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", user.Username)

	claims, ok := svc.Verify(ctx, token)
	require.True(t, ok)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "s3cure-pass"))

	_, _, badUser := svc.Login(ctx, "nobody", "s3cure-pass")
	_, _, badPass := svc.Login(ctx, "admin", "wrong")

	assert.True(t, errors.Is(badUser, apperrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(badPass, apperrors.ErrInvalidCredentials))
	// Same message either way, no user enumeration.
	assert.Equal(t, badUser.Error(), badPass.Error())
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := setupAuthService(t, -time.Minute) // already expired at issue time
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "s3cure-pass"))

	token, _, err := svc.Login(ctx, "admin", "s3cure-pass")
	require.NoError(t, err)

	_, ok := svc.Verify(ctx, token)
	assert.False(t, ok)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "s3cure-pass"))

	token, _, err := svc.Login(ctx, "admin", "s3cure-pass")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, ok := svc.Verify(ctx, tampered)
	assert.False(t, ok)

	_, ok = svc.Verify(ctx, "not-a-jwt")
	assert.False(t, ok)

	_, ok = svc.Verify(ctx, "")
	assert.False(t, ok)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	issuer := setupAuthService(t, time.Hour)
	require.NoError(t, issuer.EnsureAdmin(ctx, "admin", "admin@example.com", "s3cure-pass"))
	token, _, err := issuer.Login(ctx, "admin", "s3cure-pass")
	require.NoError(t, err)

	db, err := database.OpenTest()
	require.NoError(t, err)
	other := NewAuthService(repository.NewUserRepository(db), "different-secret", time.Hour)

	_, ok := other.Verify(ctx, token)
	assert.False(t, ok)
}

func TestEnsureAdminIdempotent(t *testing.T) {
	db, err := database.OpenTest()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, "test-secret", time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "first-pass"))
	// Second call with a different password must not replace the account.
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "other-pass"))

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, _, err = svc.Login(ctx, "admin", "first-pass")
	assert.NoError(t, err)
}

func TestEnsureAdminSkipsWithoutPassword(t *testing.T) {
	db, err := database.OpenTest()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, "test-secret", time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", ""))
	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestSignupOnlyWhileNoAdminExists(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()

	token, user, err := svc.Signup(ctx, "admin", "admin@example.com", "s3cure-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", user.Role)

	_, _, err = svc.Signup(ctx, "second", "second@example.com", "another-pass")
	assert.True(t, errors.Is(err, apperrors.ErrAdminExists))
}
