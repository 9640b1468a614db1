package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	// Ключи кешируемых подборок витрины
	FeaturedCacheKey    = "products:featured"
	BestsellersCacheKey = "products:bestsellers"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// GetList получает подборку товаров из кеша
// Отсутствие ключа - промах, а не ошибка
func (r *RedisClient) GetList(ctx context.Context, key string) ([]entity.Product, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss("catalog-service", key)
			return nil, nil
		}
		metrics.RecordRedisError("catalog-service", "get")
		return nil, fmt.Errorf("failed to get product list from cache: %w", err)
	}

	var products []entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached products: %w", err)
	}

	metrics.RecordCacheHit("catalog-service", key)
	return products, nil
}

// SetList сохраняет подборку товаров в кеш с TTL
func (r *RedisClient) SetList(ctx context.Context, key string, products []entity.Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.RecordRedisError("catalog-service", "set")
		return fmt.Errorf("failed to set products in cache: %w", err)
	}

	return nil
}

// InvalidateLists сбрасывает все кешированные подборки
// Вызывается после любой мутации каталога
func (r *RedisClient) InvalidateLists(ctx context.Context) error {
	if err := r.client.Del(ctx, FeaturedCacheKey, BestsellersCacheKey).Err(); err != nil {
		metrics.RecordRedisError("catalog-service", "del")
		return fmt.Errorf("failed to invalidate product list cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
