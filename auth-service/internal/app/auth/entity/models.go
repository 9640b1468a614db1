package entity

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Храним имя роли прямо в записи пользователя:
// отдельные таблицы ролей/прав для витрины не нужны.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User - учетная запись покупателя или администратора
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"type:varchar(100);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);not null;default:'user'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair - пара токенов, выдаваемая при регистрации/входе/обновлении
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Время жизни access-токена в секундах
}
