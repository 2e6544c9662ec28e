package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ProductRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// MergeRequest carries a guest cart kept on the client before login.
type MergeRequest struct {
	Items []AddItemRequest `json:"items"`
}

type CartLine struct {
	Product   catalogclient.Product `json:"product"`
	Quantity  int                   `json:"quantity"`
	LineTotal int64                 `json:"line_total"`
}

type Cart struct {
	Items       []CartLine  `json:"items"`
	ItemCount   int         `json:"item_count"`
	Subtotal    int64       `json:"subtotal"`
	Unavailable []uuid.UUID `json:"unavailable,omitempty"`
}

type DeleteOneFromCartResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Deleted   bool      `json:"deleted"`
	Quantity  int       `json:"quantity"`
}
