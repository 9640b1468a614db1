package service

import (
	"errors"
	"math"
	"regexp"
	"strings"
)

var (
	// ErrInvalidPrice - цены не проходят проверку: original_price <= 0,
	// discounted_price <= 0 или discounted_price > original_price
	ErrInvalidPrice = errors.New("invalid price combination")
)

// DiscountPercentage выводит процент скидки из двух цен
// Округление round-half-up, единообразно для всего каталога
// Равные цены дают 0, скидка никогда не задается отдельно от цен
func DiscountPercentage(originalPrice, discountedPrice float64) (int, error) {
	if originalPrice <= 0 || discountedPrice <= 0 {
		return 0, ErrInvalidPrice
	}
	if discountedPrice > originalPrice {
		return 0, ErrInvalidPrice
	}

	return int(math.Round(100 * (originalPrice - discountedPrice) / originalPrice)), nil
}

// RoundRating округляет средний рейтинг до одного знака, round-half-up
func RoundRating(rating float64) float64 {
	return math.Round(rating*10) / 10
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashes = regexp.MustCompile(`-{2,}`)

// Slugify выводит URL-идентификатор из названия товара
// Уникальность обеспечивает индекс хранилища, коллизия поднимается как конфликт
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugCleanup.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
