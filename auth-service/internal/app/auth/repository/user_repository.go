package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"subvault/auth-service/internal/app/auth/entity"
	"subvault/pkg/metrics"
)

// Код ошибки PostgreSQL для нарушения уникального индекса
const pgUniqueViolation = "23505"

type userRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	timer := metrics.NewDbTimer("auth-service", metrics.DbOpInsert, "users")
	defer timer.ObserveDuration()

	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		// Гонка при параллельной регистрации: уникальный индекс по email
		// срабатывает после предварительной проверки в сервисе
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	result := r.db.WithContext(ctx).First(&user, "email = ?", email)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

// Count возвращает общее число зарегистрированных пользователей
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	timer := metrics.NewDbTimer("auth-service", metrics.DbOpCount, "users")
	defer timer.ObserveDuration()

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
