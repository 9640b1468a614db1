package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subvault/auth-service/internal/app/auth/entity"
	"subvault/auth-service/internal/app/auth/repository"
	"subvault/auth-service/internal/app/auth/repository/mocks"
	"subvault/auth-service/internal/app/auth/util"
)

func newTestJWTManager() *util.JWTManager {
	return util.NewJWTManager("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func newTestUser() *entity.User {
	hash, _ := util.HashPassword("password123")
	return &entity.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		Username:     "tester",
		PasswordHash: hash,
		Role:         entity.RoleUser,
		CreatedAt:    time.Now(),
	}
}

func newAuthServiceForTest() (*AuthService, *mocks.MockUserRepository, *mocks.MockTokenRepository) {
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := NewAuthService(userRepo, tokenRepo, newTestJWTManager())
	return svc, userRepo, tokenRepo
}

// ==================== Register ====================

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, tokenRepo := newAuthServiceForTest()

	userRepo.On("GetByEmail", ctx, "newuser@example.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	tokenRepo.On("SaveRefreshToken", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("uuid.UUID"), 7*24*time.Hour).Return(nil)

	req := &entity.RegisterRequest{
		Email:    "newuser@example.com",
		Username: "newuser",
		Password: "password123",
	}

	// Act
	resp, err := svc.Register(ctx, req)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "newuser@example.com", resp.User.Email)
	assert.Equal(t, "newuser", resp.User.Username)
	assert.Equal(t, entity.RoleUser, resp.User.Role)
	assert.NotEqual(t, "password123", resp.User.PasswordHash)
	assert.True(t, util.CheckPassword("password123", resp.User.PasswordHash))
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, int64(900), resp.Tokens.ExpiresIn)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, _ := newAuthServiceForTest()

	existing := newTestUser()
	userRepo.On("GetByEmail", ctx, existing.Email).Return(existing, nil)

	req := &entity.RegisterRequest{
		Email:    existing.Email,
		Username: "someone",
		Password: "password123",
	}

	// Act
	resp, err := svc.Register(ctx, req)

	// Assert
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUserExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ==================== Login ====================

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	tokenRepo.On("SaveRefreshToken", ctx, mock.AnythingOfType("string"), user.ID, 7*24*time.Hour).Return(nil)

	// Act
	resp, err := svc.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	// Act
	resp, err := svc.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})

	// Assert
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	tokenRepo.AssertNotCalled(t, "SaveRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, _ := newAuthServiceForTest()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	// Act
	resp, err := svc.Login(ctx, &entity.LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	})

	// Assert - та же ошибка, что и при неверном пароле
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ==================== RefreshTokens ====================

func TestAuthService_RefreshTokens_RotatesToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	tokenRepo.On("GetRefreshToken", ctx, "old-refresh-token").Return(user.ID, nil)
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	tokenRepo.On("DeleteRefreshToken", ctx, "old-refresh-token").Return(nil)
	tokenRepo.On("SaveRefreshToken", ctx, mock.AnythingOfType("string"), user.ID, 7*24*time.Hour).Return(nil)

	// Act
	tokens, err := svc.RefreshTokens(ctx, "old-refresh-token")

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, "old-refresh-token", tokens.RefreshToken)
	tokenRepo.AssertCalled(t, "DeleteRefreshToken", ctx, "old-refresh-token")
}

func TestAuthService_RefreshTokens_UnknownToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _, tokenRepo := newAuthServiceForTest()

	tokenRepo.On("GetRefreshToken", ctx, "unknown-token").Return(uuid.Nil, repository.ErrRefreshTokenNotFound)

	// Act
	tokens, err := svc.RefreshTokens(ctx, "unknown-token")

	// Assert
	assert.Nil(t, tokens)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshTokens_DeletedUser(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, tokenRepo := newAuthServiceForTest()

	userID := uuid.New()
	tokenRepo.On("GetRefreshToken", ctx, "orphan-token").Return(userID, nil)
	userRepo.On("GetByID", ctx, userID).Return(nil, repository.ErrUserNotFound)

	// Act
	tokens, err := svc.RefreshTokens(ctx, "orphan-token")

	// Assert
	assert.Nil(t, tokens)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// ==================== Logout / ValidateToken ====================

func TestAuthService_Logout_RevokesTokens(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	accessToken, err := newTestJWTManager().GenerateAccessToken(user.ID, user.Email, user.Username, user.Role)
	require.NoError(t, err)

	tokenRepo.On("AddToBlacklist", ctx, accessToken, mock.AnythingOfType("time.Duration")).Return(nil)
	tokenRepo.On("DeleteUserRefreshTokens", ctx, user.ID).Return(nil)

	// Act
	err = svc.Logout(ctx, user.ID, accessToken)

	// Assert
	require.NoError(t, err)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	accessToken, err := newTestJWTManager().GenerateAccessToken(user.ID, user.Email, user.Username, user.Role)
	require.NoError(t, err)

	tokenRepo.On("IsBlacklisted", ctx, accessToken).Return(false, nil)

	// Act
	claims, err := svc.ValidateToken(ctx, accessToken)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.RoleName)
}

func TestAuthService_ValidateToken_Blacklisted(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _, tokenRepo := newAuthServiceForTest()

	user := newTestUser()
	accessToken, err := newTestJWTManager().GenerateAccessToken(user.ID, user.Email, user.Username, user.Role)
	require.NoError(t, err)

	tokenRepo.On("IsBlacklisted", ctx, accessToken).Return(true, nil)

	// Act
	claims, err := svc.ValidateToken(ctx, accessToken)

	// Assert - отозванный токен неотличим от невалидного
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

// ==================== GetCurrentUser / GetUserStats ====================

func TestAuthService_GetCurrentUser_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, _ := newAuthServiceForTest()

	userID := uuid.New()
	userRepo.On("GetByID", ctx, userID).Return(nil, repository.ErrUserNotFound)

	// Act
	user, err := svc.GetCurrentUser(ctx, userID)

	// Assert
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_GetUserStats_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, userRepo, _ := newAuthServiceForTest()

	userRepo.On("Count", ctx).Return(int64(42), nil)

	// Act
	stats, err := svc.GetUserStats(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Count)
}
