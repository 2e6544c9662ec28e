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
	"github.com/Skotchmaster/storefront/services/cart/internal/models"
	"github.com/Skotchmaster/storefront/services/cart/internal/repo"
	"github.com/Skotchmaster/storefront/services/cart/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const MaxLineQuantity = 99

// Catalog is the part of the catalog client the cart needs.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalogclient.Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error)
}

type CartService struct {
	Repo    *repo.GormRepo
	Catalog Catalog
	Events  events.Publisher
}

// GetCart prices the stored lines against the catalog. Lines whose product is
// gone are left out of the totals and listed in Unavailable.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := &transport.Cart{Items: make([]transport.CartLine, 0, len(items))}
	if len(items) == 0 {
		return cart, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, _, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("price cart: %w", err)
	}

	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			cart.Unavailable = append(cart.Unavailable, it.ProductID)
			continue
		}
		line := transport.CartLine{
			Product:   p,
			Quantity:  it.Quantity,
			LineTotal: p.Price * int64(it.Quantity),
		}
		cart.Items = append(cart.Items, line)
		cart.ItemCount += line.Quantity
		cart.Subtotal += line.LineTotal
	}
	return cart, nil
}

func validateLine(productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be more than zero", ErrValidation)
	}
	if qty > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrValidation, MaxLineQuantity)
	}
	return nil
}

func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	if err := validateLine(productID, qty); err != nil {
		return nil, err
	}
	if _, err := s.Catalog.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, catalogclient.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, err
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	if err := s.Repo.AddToCart(ctx, item, MaxLineQuantity); err != nil {
		if errors.Is(err, repo.ErrLimitExceeded) {
			return nil, fmt.Errorf("%w: at most %d of product %s in the cart", ErrValidation, MaxLineQuantity, productID)
		}
		return nil, err
	}

	e := events.New(events.CartItemAdded)
	e.UserID = userID.String()
	e.ProductID = productID.String()
	e.Quantity = qty
	events.Emit(ctx, s.Events, events.TopicCart, e.UserID, e)
	return item, nil
}

// SetQuantity replaces a line's quantity. Zero removes the line and returns nil.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if qty < 0 || qty > MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", ErrValidation, MaxLineQuantity)
	}

	item, err := s.Repo.SetQuantity(ctx, userID, productID, qty)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s not in cart", ErrNotFound, productID)
		}
		return nil, err
	}
	if item == nil {
		s.emitRemoved(ctx, userID, productID)
	}
	return item, nil
}

func (s *CartService) DeleteOneFromCart(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (bool, *models.CartItem, error) {
	if productID == uuid.Nil {
		return false, nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}

	deleted, item, err := s.Repo.DeleteOneFromCart(ctx, productID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, fmt.Errorf("%w: product %s not in cart", ErrNotFound, productID)
		}
		return false, nil, err
	}
	if deleted {
		s.emitRemoved(ctx, userID, productID)
	}
	return deleted, item, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s not in cart", ErrNotFound, productID)
		}
		return err
	}
	s.emitRemoved(ctx, userID, productID)
	return nil
}

func (s *CartService) DeleteAllFromCart(ctx context.Context, userID uuid.UUID) error {
	n, err := s.Repo.DeleteAllFromCart(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		e := events.New(events.CartCleared)
		e.UserID = userID.String()
		events.Emit(ctx, s.Events, events.TopicCart, e.UserID, e)
	}
	return nil
}

// MergeCart folds a guest cart into the user's cart. Duplicate lines are summed.
// One bad or unknown line rejects the whole merge.
func (s *CartService) MergeCart(ctx context.Context, userID uuid.UUID, lines []transport.AddItemRequest) (*transport.Cart, error) {
	if len(lines) == 0 {
		return s.GetCart(ctx, userID)
	}

	merged := make(map[uuid.UUID]int, len(lines))
	order := make([]uuid.UUID, 0, len(lines))
	for i, line := range lines {
		if err := validateLine(line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		if _, seen := merged[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		if merged[line.ProductID]+line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: line %d: at most %d of product %s", ErrValidation, i, MaxLineQuantity, line.ProductID)
		}
		merged[line.ProductID] += line.Quantity
	}

	_, missing, err := s.Catalog.GetProducts(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("check products: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown products %v", ErrValidation, missing)
	}

	items := make([]models.CartItem, 0, len(order))
	for _, id := range order {
		items = append(items, models.CartItem{UserID: userID, ProductID: id, Quantity: merged[id]})
	}
	if err := s.Repo.MergeItems(ctx, items, MaxLineQuantity); err != nil {
		if errors.Is(err, repo.ErrLimitExceeded) {
			return nil, fmt.Errorf("%w: merged quantity exceeds %d", ErrValidation, MaxLineQuantity)
		}
		return nil, err
	}

	e := events.New(events.CartMerged)
	e.UserID = userID.String()
	e.Quantity = len(items)
	events.Emit(ctx, s.Events, events.TopicCart, e.UserID, e)

	logging.FromContext(ctx).Info("cart_merged", "user_id", userID, "lines", len(items))
	return s.GetCart(ctx, userID)
}

func (s *CartService) emitRemoved(ctx context.Context, userID, productID uuid.UUID) {
	e := events.New(events.CartItemRemoved)
	e.UserID = userID.String()
	e.ProductID = productID.String()
	events.Emit(ctx, s.Events, events.TopicCart, e.UserID, e)
}
