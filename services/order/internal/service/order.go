package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/order/internal/models"
	"github.com/Skotchmaster/storefront/services/order/internal/repo"
	"github.com/Skotchmaster/storefront/services/order/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

const (
	topProducts  = 5
	recentOrders = 5
)

// MaxLineQuantity caps a single product's quantity in one order, after
// duplicate lines are merged.
const MaxLineQuantity = 99

type Catalog interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error)
}

type OrderService struct {
	Repo    *repo.GormRepo
	Catalog Catalog
	Events  events.Publisher
	Pricing Pricing
}

func (s *OrderService) pricing() Pricing {
	if s.Pricing == (Pricing{}) {
		return DefaultPricing
	}
	return s.Pricing
}

// Quote prices the lines against the catalog. Duplicate lines are merged and
// every line must be in stock.
func (s *OrderService) Quote(ctx context.Context, lines []transport.LineRequest) (*transport.Quote, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	qty := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d: product_id required", ErrValidation, i)
		}
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: line %d: quantity must be between 1 and %d", ErrValidation, i, MaxLineQuantity)
		}
		if _, seen := qty[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		if qty[line.ProductID]+line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: at most %d of product %s per order", ErrValidation, MaxLineQuantity, line.ProductID)
		}
		qty[line.ProductID] += line.Quantity
	}

	products, missing, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("price items: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown products %v", ErrValidation, missing)
	}

	q := &transport.Quote{Lines: make([]transport.QuoteLine, 0, len(ids))}
	for _, id := range ids {
		p := products[id]
		n := qty[id]
		if int64(n) > int64(p.Stock) {
			return nil, fmt.Errorf("%w: only %d of %q in stock", ErrConflict, p.Stock, p.Name)
		}
		line := transport.QuoteLine{
			ProductID: id,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  n,
			LineTotal: p.Price * int64(n),
		}
		q.Lines = append(q.Lines, line)
		q.ItemCount += n
		q.Subtotal += line.LineTotal
	}

	pr := s.pricing()
	q.Shipping = pr.Shipping(q.Subtotal)
	q.Tax = pr.Tax(q.Subtotal)
	q.Total = q.Subtotal + q.Shipping + q.Tax
	return q, nil
}

func validateAddress(a *models.ShippingAddress) error {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)

	var missing []string
	for name, v := range map[string]string{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: shipping address missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func validatePayment(method, last4 string) error {
	switch method {
	case models.PaymentCard:
		if len(last4) != 4 || strings.Trim(last4, "0123456789") != "" {
			return fmt.Errorf("%w: card payments need the last 4 card digits", ErrValidation)
		}
	case models.PaymentPayPal, models.PaymentCOD:
		if last4 != "" {
			return fmt.Errorf("%w: card_last4 only applies to card payments", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	return nil
}

func orderPayload(o *models.Order) events.OrderPayload {
	p := events.OrderPayload{
		OrderID: o.ID.String(),
		UserID:  o.UserID.String(),
		Status:  o.Status,
		Total:   o.Total,
		Items:   make([]events.OrderLine, len(o.Items)),
	}
	for i, it := range o.Items {
		p.Items[i] = events.OrderLine{ProductID: it.ProductID.String(), Quantity: it.Quantity}
	}
	return p
}

func (s *OrderService) emit(ctx context.Context, typ string, o *models.Order) {
	e := events.New(typ)
	e.UserID = o.UserID.String()
	e.OrderID = o.ID.String()
	e, err := e.WithData(orderPayload(o))
	if err != nil {
		logging.FromContext(ctx).Error("event_encode_error", "type", typ, "order_id", o.ID, "error", err)
		return
	}
	events.Emit(ctx, s.Events, events.TopicOrder, e.OrderID, e)
}

// PlaceOrder re-quotes the items, validates delivery and payment details and
// stores a pending order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req transport.CheckoutRequest) (*models.Order, error) {
	addr := req.ShippingAddress
	if err := validateAddress(&addr); err != nil {
		return nil, err
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	last4 := strings.TrimSpace(req.CardLast4)
	if err := validatePayment(method, last4); err != nil {
		return nil, err
	}

	quote, err := s.Quote(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.StatusPending,
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Tax:             quote.Tax,
		Total:           quote.Total,
		PaymentMethod:   method,
		CardLast4:       last4,
		ShippingAddress: datatypes.NewJSONType(addr),
		Notes:           strings.TrimSpace(req.Notes),
		Items:           make([]models.OrderItem, len(quote.Lines)),
	}
	for i, line := range quote.Lines {
		order.Items[i] = models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		}
	}

	if err := s.Repo.CreateOrder(ctx, order, "order placed"); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_placed", "order_id", order.ID, "user_id", userID, "total", order.Total)
	s.emit(ctx, events.OrderPlaced, order)
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, offset, limit)
}

// GetOrder returns the order if it belongs to userID or the caller is an admin.
// Other users' orders are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, id uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return order, nil
}

func (s *OrderService) Timeline(ctx context.Context, userID, id uuid.UUID, isAdmin bool) ([]models.OrderStatusEvent, error) {
	if _, err := s.GetOrder(ctx, userID, id, isAdmin); err != nil {
		return nil, err
	}
	return s.Repo.Timeline(ctx, id)
}

func (s *OrderService) CancelOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.ChangeStatus(ctx, id, models.StatusCancelled, "cancelled by customer", "", func(o *models.Order) error {
		if o.UserID != userID {
			return fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		if !models.CanTransition(o.Status, models.StatusCancelled) {
			return fmt.Errorf("%w: %s orders cannot be cancelled", ErrConflict, o.Status)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}

	s.emit(ctx, events.OrderCancelled, order)
	return order, nil
}

// UpdateStatus moves an order along its lifecycle on behalf of an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest) (*models.Order, error) {
	to := strings.ToLower(strings.TrimSpace(req.Status))
	tracking := strings.TrimSpace(req.TrackingNumber)
	if !models.ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if to == models.StatusShipped && tracking == "" {
		return nil, fmt.Errorf("%w: tracking_number required to ship", ErrValidation)
	}

	order, err := s.Repo.ChangeStatus(ctx, id, to, strings.TrimSpace(req.Note), tracking, func(o *models.Order) error {
		if !models.CanTransition(o.Status, to) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, o.Status, to)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}

	if to == models.StatusCancelled {
		s.emit(ctx, events.OrderCancelled, order)
	} else {
		s.emit(ctx, events.OrderStatusChanged, order)
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !models.ValidStatus(status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListAll(ctx, status, offset, limit)
}

func (s *OrderService) Stats(ctx context.Context) (*transport.OrderStats, error) {
	return s.Repo.Stats(ctx, topProducts, recentOrders)
}
