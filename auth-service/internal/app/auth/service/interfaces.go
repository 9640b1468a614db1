package service

import (
	"context"

	"github.com/google/uuid"

	"subvault/auth-service/internal/app/auth/entity"
	"subvault/auth-service/internal/app/auth/util"
)

// AuthServiceInterface - контракт сервиса аутентификации для handler-слоя
type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.AuthResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) error
	ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error)
	GetUserStats(ctx context.Context) (*entity.UserStats, error)
}
