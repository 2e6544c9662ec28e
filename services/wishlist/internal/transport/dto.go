package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
)

type AddRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

type Entry struct {
	ProductID uuid.UUID              `json:"product_id"`
	AddedAt   time.Time              `json:"added_at"`
	Product   *catalogclient.Product `json:"product,omitempty"`
}

type Wishlist struct {
	Items []Entry `json:"items"`
	Count int     `json:"count"`
}

type ContainsResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	InWishlist bool      `json:"in_wishlist"`
}
