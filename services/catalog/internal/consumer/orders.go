// Package consumer keeps product stock in step with order events.
package consumer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
)

type StockAdjuster interface {
	AdjustStock(ctx context.Context, changes []transport.StockChange, sign int) error
}

// Handler routes order_placed to a stock decrement and order_cancelled to an increment.
func Handler(svc StockAdjuster) events.Handler {
	return events.Route(map[string]events.Handler{
		events.OrderPlaced:    adjust(svc, -1),
		events.OrderCancelled: adjust(svc, 1),
	})
}

func adjust(svc StockAdjuster, sign int) events.Handler {
	return func(ctx context.Context, e events.Event) error {
		var payload events.OrderPayload
		if err := e.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type, err)
		}

		changes, skipped := stockChanges(payload.Items)
		if skipped > 0 {
			logging.FromContext(ctx).Warn("stock_lines_skipped", "order_id", payload.OrderID, "type", e.Type, "skipped", skipped)
		}
		if len(changes) == 0 {
			return nil
		}
		return svc.AdjustStock(ctx, changes, sign)
	}
}

func stockChanges(lines []events.OrderLine) ([]transport.StockChange, int) {
	out := make([]transport.StockChange, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil || line.Quantity <= 0 {
			skipped++
			continue
		}
		out = append(out, transport.StockChange{ProductID: id, Quantity: line.Quantity})
	}
	return out, skipped
}
