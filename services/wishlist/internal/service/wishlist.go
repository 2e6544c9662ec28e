package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/models"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/repo"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalogclient.Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error)
}

type WishlistService struct {
	Repo    *repo.GormRepo
	Catalog Catalog
	Events  events.Publisher
}

// List returns the user's wishlist, newest first. Product details are attached
// when the catalog is reachable; a catalog failure leaves them out.
func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) (*transport.Wishlist, error) {
	items, err := s.Repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &transport.Wishlist{Items: make([]transport.Entry, len(items)), Count: len(items)}
	for i, it := range items {
		out.Items[i] = transport.Entry{ProductID: it.ProductID, AddedAt: it.CreatedAt}
	}
	if len(items) == 0 || s.Catalog == nil {
		return out, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, _, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Warn("wishlist_products_unavailable", "user_id", userID, "error", err)
		return out, nil
	}
	for i := range out.Items {
		if p, ok := products[out.Items[i].ProductID]; ok {
			out.Items[i].Product = &p
		}
	}
	return out, nil
}

// Add puts a product on the wishlist. Adding a product twice is not an error.
func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if s.Catalog != nil {
		if _, err := s.Catalog.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, catalogclient.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
			}
			return nil, err
		}
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	created, err := s.Repo.Add(ctx, item)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.Repo.Get(ctx, userID, productID)
	}

	s.emit(ctx, events.WishlistItemAdded, userID, productID)
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.Repo.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s not in wishlist", ErrNotFound, productID)
		}
		return err
	}
	s.emit(ctx, events.WishlistItemRemoved, userID, productID)
	return nil
}

// Toggle adds the product when absent and removes it when present. It returns
// whether the product is on the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	in, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if in {
		if err := s.Remove(ctx, userID, productID); err != nil && !errors.Is(err, ErrNotFound) {
			return false, err
		}
		return false, nil
	}
	if _, err := s.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *WishlistService) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if productID == uuid.Nil {
		return false, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	return s.Repo.Contains(ctx, userID, productID)
}

func (s *WishlistService) Clear(ctx context.Context, userID uuid.UUID) error {
	n, err := s.Repo.Clear(ctx, userID)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("wishlist_cleared", "user_id", userID, "removed", n)
	return nil
}

func (s *WishlistService) emit(ctx context.Context, typ string, userID, productID uuid.UUID) {
	e := events.New(typ)
	e.UserID = userID.String()
	e.ProductID = productID.String()
	events.Emit(ctx, s.Events, events.TopicWishlist, e.UserID, e)
}
