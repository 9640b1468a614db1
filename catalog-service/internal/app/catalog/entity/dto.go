package entity

type CreateProductRequest struct {
	Name             string   `json:"name" validate:"required,min=2,max=200"`
	Description      string   `json:"description" validate:"required,min=10,max=5000"`
	ShortDescription string   `json:"short_description" validate:"omitempty,max=500"`
	Category         string   `json:"category" validate:"required,min=2,max=100"`
	Subcategory      string   `json:"subcategory" validate:"omitempty,max=100"`
	Keywords         []string `json:"keywords" validate:"omitempty,dive,min=1,max=50"`
	OriginalPrice    float64  `json:"original_price" validate:"required,gt=0"`
	DiscountedPrice  float64  `json:"discounted_price" validate:"required,gt=0"`
	StockQuantity    *int     `json:"stock_quantity" validate:"omitempty,gte=0"` // По умолчанию 100
	IsFeatured       bool     `json:"is_featured"`
	IsBestseller     bool     `json:"is_bestseller"`
	ImageURL         string   `json:"image_url" validate:"omitempty,url"`
	DurationDays     int      `json:"duration_days" validate:"omitempty,gt=0"`
}

// UpdateProductRequest - частичное обновление, nil поля не трогаются
type UpdateProductRequest struct {
	Name             *string        `json:"name" validate:"omitempty,min=2,max=200"`
	Description      *string        `json:"description" validate:"omitempty,min=10,max=5000"`
	ShortDescription *string        `json:"short_description" validate:"omitempty,max=500"`
	Category         *string        `json:"category" validate:"omitempty,min=2,max=100"`
	Subcategory      *string        `json:"subcategory" validate:"omitempty,max=100"`
	Keywords         []string       `json:"keywords" validate:"omitempty,dive,min=1,max=50"`
	OriginalPrice    *float64       `json:"original_price" validate:"omitempty,gt=0"`
	DiscountedPrice  *float64       `json:"discounted_price" validate:"omitempty,gt=0"`
	StockQuantity    *int           `json:"stock_quantity" validate:"omitempty,gte=0"`
	Status           *ProductStatus `json:"status" validate:"omitempty,oneof=active out_of_stock inactive"`
	IsFeatured       *bool          `json:"is_featured"`
	IsBestseller     *bool          `json:"is_bestseller"`
	ImageURL         *string        `json:"image_url" validate:"omitempty,url"`
	DurationDays     *int           `json:"duration_days" validate:"omitempty,gt=0"`
}

type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	UserName  string `json:"user_name" validate:"required,min=2,max=100"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Title     string `json:"title" validate:"omitempty,max=200"`
	Text      string `json:"text" validate:"omitempty,max=3000"`
}

type BulkStockUpdateRequest struct {
	Action       string `json:"action" validate:"required,oneof=mark_out_of_stock reset_stock"`
	DefaultStock *int   `json:"default_stock" validate:"omitempty,gte=0"` // Только для reset_stock
}

// ProductListResponse - страница каталога с метаданными пагинации
// total всегда посчитан тем же предикатом, что и содержимое data
type ProductListResponse struct {
	Success    bool      `json:"success"`
	Data       []Product `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
