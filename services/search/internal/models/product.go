package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the search document for a catalog product.
type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	CompareAtPrice *int64    `json:"compare_at_price,omitempty"`
	Category       string    `json:"category"`
	Images         []string  `json:"images"`
	Rating         float64   `json:"rating"`
	ReviewsCount   int       `json:"reviews_count"`
	Stock          int       `json:"stock"`
	Featured       bool      `json:"featured"`
	UpdatedAt      time.Time `json:"updated_at"`
}
