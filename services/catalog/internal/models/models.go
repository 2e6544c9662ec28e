package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const LowStockThreshold = 5

type Product struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey"   json:"id"`
	Name           string                      `gorm:"not null;index"         json:"name"`
	Description    string                      `gorm:"not null;default:''"    json:"description"`
	Price          int64                       `gorm:"not null;check:price >= 0" json:"price"`
	CompareAtPrice *int64                      `                              json:"compare_at_price,omitempty"`
	Category       string                      `gorm:"not null;index"         json:"category"`
	Images         datatypes.JSONSlice[string] `                              json:"images"`
	Rating         float64                     `gorm:"not null;default:0"     json:"rating"`
	ReviewsCount   int                         `gorm:"not null;default:0"     json:"reviews_count"`
	Stock          int                         `gorm:"not null;default:0"     json:"stock"`
	Featured       bool                        `gorm:"not null;default:false;index" json:"featured"`
	CreatedAt      time.Time                   `gorm:"index"                  json:"created_at"`
	UpdatedAt      time.Time                   `                              json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

func All() []any {
	return []any{&Product{}}
}
