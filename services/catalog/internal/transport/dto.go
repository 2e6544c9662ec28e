package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
)

type CreateProductRequest struct {
	Name           string   `json:"name"            yaml:"name"`
	Description    string   `json:"description"     yaml:"description"`
	Price          int64    `json:"price"           yaml:"price"`
	CompareAtPrice *int64   `json:"compare_at_price" yaml:"compare_at_price"`
	Category       string   `json:"category"        yaml:"category"`
	Images         []string `json:"images"          yaml:"images"`
	Rating         float64  `json:"rating"          yaml:"rating"`
	ReviewsCount   int      `json:"reviews_count"   yaml:"reviews_count"`
	Stock          int      `json:"stock"           yaml:"stock"`
	Featured       bool     `json:"featured"        yaml:"featured"`
}

type PatchProductRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Price          *int64    `json:"price"`
	CompareAtPrice *int64    `json:"compare_at_price"`
	Category       *string   `json:"category"`
	Images         *[]string `json:"images"`
	Rating         *float64  `json:"rating"`
	ReviewsCount   *int      `json:"reviews_count"`
	Stock          *int      `json:"stock"`
	Featured       *bool     `json:"featured"`
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortName      = "name"
)

type ProductFilter struct {
	Category string
	MinPrice *int64
	MaxPrice *int64
	Featured *bool
	InStock  bool
	Sort     string
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type StockChange struct {
	ProductID uuid.UUID
	Quantity  int
}

type CatalogStats struct {
	TotalProducts int64            `json:"total_products"`
	OutOfStock    int64            `json:"out_of_stock"`
	LowStock      []models.Product `json:"low_stock"`
}
