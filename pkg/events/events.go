package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	TopicUser     = "user_events"
	TopicProduct  = "product_events"
	TopicCart     = "cart_events"
	TopicWishlist = "wishlist_events"
	TopicOrder    = "order_events"
)

const (
	UserRegistered = "user_registered"

	ProductCreated = "product_created"
	ProductUpdated = "product_updated"
	ProductDeleted = "product_deleted"

	CartItemAdded   = "cart_item_added"
	CartItemRemoved = "cart_item_removed"
	CartCleared     = "cart_cleared"
	CartMerged      = "cart_merged"

	WishlistItemAdded   = "wishlist_item_added"
	WishlistItemRemoved = "wishlist_item_removed"

	OrderPlaced        = "order_placed"
	OrderStatusChanged = "order_status_changed"
	OrderCancelled     = "order_cancelled"
)

type Event struct {
	Type       string          `json:"type"`
	UserID     string          `json:"user_id,omitempty"`
	ProductID  string          `json:"product_id,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func New(typ string) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC()}
}

// WithData returns a copy of e carrying v encoded as JSON.
func (e Event) WithData(v any) (Event, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return e, fmt.Errorf("events: encode data: %w", err)
	}
	e.Data = raw
	return e, nil
}

func (e Event) Decode(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("events: %s has no data", e.Type)
	}
	return json.Unmarshal(e.Data, dst)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, e Event) error
	Close() error
}

// Emit publishes e and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, topic, key string, e Event) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Publish(pubCtx, topic, key, e); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", topic, "type", e.Type, "error", err)
	}
}

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderPayload is the data of order_placed and order_cancelled events.
type OrderPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Status  string      `json:"status,omitempty"`
	Total   int64       `json:"total"`
	Items   []OrderLine `json:"items"`
}
