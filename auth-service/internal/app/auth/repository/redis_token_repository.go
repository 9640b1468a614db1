package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// Схема ключей в Redis:
//
//	refresh_token:<token> -> userID (TTL = срок жизни refresh-токена)
//	user_tokens:<userID>  -> множество активных токенов пользователя
//	blacklist:<token>     -> отозванный access-токен (TTL = остаток его жизни)
type redisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository создает Redis-хранилище токенов
func NewRedisTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

func (r *redisTokenRepository) SaveRefreshToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("refresh token ttl must be positive")
	}

	key := refreshTokenKey(token)
	if err := r.client.Set(ctx, key, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	// Множество токенов пользователя нужно, чтобы уметь отозвать все его сессии разом
	userKey := userTokensKey(userID)
	if err := r.client.SAdd(ctx, userKey, token).Err(); err != nil {
		return fmt.Errorf("failed to track user token: %w", err)
	}
	r.client.Expire(ctx, userKey, ttl)

	return nil
}

func (r *redisTokenRepository) GetRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, refreshTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID stored for refresh token: %w", err)
	}

	return userID, nil
}

func (r *redisTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	key := refreshTokenKey(token)

	// Сначала узнаем владельца, чтобы убрать токен и из его множества
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to look up refresh token owner: %w", err)
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	if userIDStr != "" {
		r.client.SRem(ctx, fmt.Sprintf("user_tokens:%s", userIDStr), token)
	}

	return nil
}

func (r *redisTokenRepository) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	userKey := userTokensKey(userID)

	tokens, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user tokens: %w", err)
	}

	for _, token := range tokens {
		r.client.Del(ctx, refreshTokenKey(token))
	}

	if err := r.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("failed to delete user tokens set: %w", err)
	}

	return nil
}

func (r *redisTokenRepository) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Токен уже истек, блокировать нечего
		return nil
	}

	if err := r.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

func (r *redisTokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}

	return exists > 0, nil
}

func refreshTokenKey(token string) string {
	return fmt.Sprintf("refresh_token:%s", token)
}

func userTokensKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_tokens:%s", userID.String())
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}
