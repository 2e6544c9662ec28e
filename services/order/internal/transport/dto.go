package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/services/order/internal/models"
)

type LineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type QuoteRequest struct {
	Items []LineRequest `json:"items"`
}

type QuoteLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal int64     `json:"line_total"`
}

type Quote struct {
	Lines     []QuoteLine `json:"lines"`
	ItemCount int         `json:"item_count"`
	Subtotal  int64       `json:"subtotal"`
	Shipping  int64       `json:"shipping"`
	Tax       int64       `json:"tax"`
	Total     int64       `json:"total"`
}

type CheckoutRequest struct {
	Items           []LineRequest          `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	CardLast4       string                 `json:"card_last4"`
	Notes           string                 `json:"notes"`
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	Note           string `json:"note"`
	TrackingNumber string `json:"tracking_number"`
}

type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Revenue   int64     `json:"revenue"`
}

type OrderStats struct {
	TotalOrders       int64            `json:"total_orders"`
	ByStatus          map[string]int64 `json:"by_status"`
	Revenue           int64            `json:"revenue"`
	AverageOrderValue int64            `json:"average_order_value"`
	TopProducts       []TopProduct     `json:"top_products"`
	RecentOrders      []models.Order   `json:"recent_orders"`
}

type StatusCount struct {
	Status string
	Count  int64
}
