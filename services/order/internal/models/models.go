package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var Statuses = []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

const (
	PaymentCard   = "card"
	PaymentPayPal = "paypal"
	PaymentCOD    = "cod"
)

// transitions lists the statuses an order may move to from each status.
var transitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID              uuid.UUID                           `gorm:"type:uuid;primaryKey"  json:"id"`
	UserID          uuid.UUID                           `gorm:"type:uuid;index;not null" json:"user_id"`
	Status          string                              `gorm:"not null;index"        json:"status"`
	Subtotal        int64                               `gorm:"not null"              json:"subtotal"`
	Shipping        int64                               `gorm:"not null"              json:"shipping"`
	Tax             int64                               `gorm:"not null"              json:"tax"`
	Total           int64                               `gorm:"not null"              json:"total"`
	PaymentMethod   string                              `gorm:"not null"              json:"payment_method"`
	CardLast4       string                              `json:"card_last4,omitempty"`
	ShippingAddress datatypes.JSONType[ShippingAddress] `json:"shipping_address"`
	Notes           string                              `json:"notes,omitempty"`
	TrackingNumber  string                              `json:"tracking_number,omitempty"`
	Items           []OrderItem                         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time                           `gorm:"index"                 json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"     json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"     json:"product_id"`
	Name      string    `gorm:"not null"                     json:"name"`
	UnitPrice int64     `gorm:"not null"                     json:"unit_price"`
	Quantity  int       `gorm:"not null;check:quantity > 0"  json:"quantity"`
	LineTotal int64     `gorm:"not null"                     json:"line_total"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderStatusEvent is one entry of an order's tracking timeline.
type OrderStatusEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	Status    string    `gorm:"not null"                 json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func All() []any {
	return []any{&Order{}, &OrderItem{}, &OrderStatusEvent{}}
}
