package repository

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// sortableFields - белый список полей для сортировки
// Каталог сортируется только по индексированным полям
var sortableFields = map[string]string{
	"created_at":       "created_at",
	"discounted_price": "discounted_price",
	"original_price":   "original_price",
	"rating":           "rating",
	"total_reviews":    "total_reviews",
	"name":             "name",
}

// ProductFilter описывает параметры выборки каталога
// Из одного фильтра строятся и предикат страницы, и предикат подсчета:
// они обязаны совпадать, иначе total разойдется с содержимым страницы
type ProductFilter struct {
	Category    string
	Subcategory string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	Search      string
	SortBy      string
	SortOrder   string // asc | desc
	Page        int
	PerPage     int

	// Админские выборки видят товары в любом статусе
	IncludeInactive bool
}

// Normalize приводит пагинацию к допустимым значениям
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
}

// Query строит единый предикат для Find и CountDocuments
func (f *ProductFilter) Query() bson.M {
	query := bson.M{}

	if !f.IncludeInactive {
		query["status"] = "active"
	}

	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Subcategory != "" {
		query["subcategory"] = f.Subcategory
	}

	// Диапазон цен - один объект с $gte/$lte, а не две независимые записи,
	// иначе второе присваивание затерло бы первое
	priceRange := bson.M{}
	if f.MinPrice != nil {
		priceRange["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		priceRange["$lte"] = *f.MaxPrice
	}
	if len(priceRange) > 0 {
		query["discounted_price"] = priceRange
	}

	if f.MinRating != nil {
		query["rating"] = bson.M{"$gte": *f.MinRating}
	}

	// Текстовый поиск - OR по текстовым полям, соединяется через AND
	// с остальными условиями фильтра
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"short_description": pattern},
			bson.M{"category": pattern},
			bson.M{"subcategory": pattern},
			bson.M{"keywords": f.Search},
		}
	}

	return query
}

// FindOptions строит опции страницы: сортировка, skip и limit
// Это единственное, чем запрос страницы отличается от запроса подсчета
func (f *ProductFilter) FindOptions() *options.FindOptions {
	f.Normalize()

	field, ok := sortableFields[f.SortBy]
	if !ok {
		field = "created_at"
	}

	// По умолчанию новые товары первыми
	direction := -1
	if f.SortOrder == "asc" {
		direction = 1
	}

	skip := int64((f.Page - 1) * f.PerPage)
	limit := int64(f.PerPage)

	// Вторичная сортировка по _id: поля вроде цены и рейтинга не уникальны,
	// без тай-брейка страницы могут пересекаться между запросами
	return options.Find().
		SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(skip).
		SetLimit(limit)
}
