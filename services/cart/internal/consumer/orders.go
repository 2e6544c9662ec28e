package consumer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/events"
)

type CartClearer interface {
	DeleteAllFromCart(ctx context.Context, userID uuid.UUID) error
}

// Handler empties the buyer's cart once their order is placed.
func Handler(svc CartClearer) events.Handler {
	return events.Route(map[string]events.Handler{
		events.OrderPlaced: func(ctx context.Context, e events.Event) error {
			raw := e.UserID
			if raw == "" {
				var payload events.OrderPayload
				if err := e.Decode(&payload); err != nil {
					return fmt.Errorf("decode %s: %w", e.Type, err)
				}
				raw = payload.UserID
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("%s: bad user id %q: %w", e.Type, raw, err)
			}
			return svc.DeleteAllFromCart(ctx, userID)
		},
	})
}
