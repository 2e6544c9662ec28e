// Package consumer mirrors catalog product events into the search index.
package consumer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/search/internal/models"
)

type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	RemoveProduct(ctx context.Context, id uuid.UUID) error
}

func Handler(idx Indexer) events.Handler {
	upsert := func(ctx context.Context, e events.Event) error {
		var p models.Product
		if err := e.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type, err)
		}
		return idx.IndexProduct(ctx, p)
	}

	return events.Route(map[string]events.Handler{
		events.ProductCreated: upsert,
		events.ProductUpdated: upsert,
		events.ProductDeleted: func(ctx context.Context, e events.Event) error {
			id, err := uuid.Parse(e.ProductID)
			if err != nil {
				logging.FromContext(ctx).Warn("product_delete_skipped", "product_id", e.ProductID, "error", err)
				return nil
			}
			return idx.RemoveProduct(ctx, id)
		},
	})
}
