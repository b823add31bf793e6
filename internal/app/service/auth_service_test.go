package service

import (
	"testing"
	"time"

	"github.com/shoplite/storefront-backend/config"
	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/internal/db"
	"github.com/shoplite/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServiceTest(t *testing.T) AuthService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	jwtConfig := config.JWTConfig{
		Secret:             "test-secret-key",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 168 * time.Hour,
	}

	return NewAuthService(userRepo, jwtConfig)
}

func TestAuthService_Register(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, err := authService.Register("shopper@example.com", "password123", "Shopper")
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "shopper@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	// Password never stored in the clear
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, util.VerifyPassword(user.PasswordHash, "password123"))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, err := authService.Register("shopper@example.com", "password123", "Shopper")
	require.NoError(t, err)

	_, err = authService.Register("shopper@example.com", "different456", "Imposter")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	authService := setupAuthServiceTest(t)

	registered, err := authService.Register("shopper@example.com", "password123", "Shopper")
	require.NoError(t, err)

	user, tokens, err := authService.Login("shopper@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := util.ValidateToken(tokens.AccessToken, "test-secret-key")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, string(model.RoleUser), claims.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, err := authService.Register("shopper@example.com", "password123", "Shopper")
	require.NoError(t, err)

	_, _, err = authService.Login("shopper@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService := setupAuthServiceTest(t)

	registered, err := authService.Register("shopper@example.com", "password123", "Shopper")
	require.NoError(t, err)

	user, err := authService.GetUserByID(registered.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Shopper", user.Name)

	_, err = authService.GetUserByID(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
