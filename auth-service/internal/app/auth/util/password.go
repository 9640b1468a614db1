package util

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt тихо обрезает вход на 72 байтах, поэтому длина пароля
// дополнительно ограничена в DTO валидации
const passwordHashCost = bcrypt.DefaultCost

// HashPassword возвращает bcrypt-хэш пароля
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword сверяет пароль с хэшом
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
