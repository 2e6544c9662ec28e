package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/dbtest"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/cart/internal/models"
	"github.com/Skotchmaster/storefront/services/cart/internal/repo"
	"github.com/Skotchmaster/storefront/services/cart/internal/transport"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalogclient.Product
	err      error
}

func newFakeCatalog(products ...catalogclient.Product) *fakeCatalog {
	f := &fakeCatalog{products: map[uuid.UUID]catalogclient.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalogclient.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, catalogclient.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error) {
	found := map[uuid.UUID]catalogclient.Product{}
	var missing []uuid.UUID
	for _, id := range ids {
		p, err := f.GetProduct(ctx, id)
		if errors.Is(err, catalogclient.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		found[id] = *p
	}
	return found, missing, nil
}

var (
	mug  = catalogclient.Product{ID: uuid.New(), Name: "Mug", Price: 1200, Stock: 10}
	tote = catalogclient.Product{ID: uuid.New(), Name: "Tote", Price: 1899, Stock: 3}
)

func newTestCartService(t *testing.T) (*CartService, *fakeCatalog, *events.Memory) {
	t.Helper()
	catalog := newFakeCatalog(mug, tote)
	pub := &events.Memory{}
	return &CartService{
		Repo:    &repo.GormRepo{DB: dbtest.Open(t, models.All()...)},
		Catalog: catalog,
		Events:  pub,
	}, catalog, pub
}

func TestCartService_AddToCart_IncrementsCount(t *testing.T) {
	svc, _, pub := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, 2)
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	before := cart.ItemCount

	item, err := svc.AddToCart(ctx, user, mug.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	cart, err = svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before+3, cart.ItemCount)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(6000), cart.Items[0].LineTotal)
	assert.Equal(t, int64(6000), cart.Subtotal)

	assert.Equal(t, []string{events.CartItemAdded, events.CartItemAdded}, pub.Types())
	assert.Equal(t, user.String(), pub.Events()[0].Key)
}

func TestCartService_AddToCart_Validation(t *testing.T) {
	svc, _, pub := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddToCart(ctx, user, uuid.Nil, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddToCart(ctx, user, mug.ID, MaxLineQuantity+1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddToCart(ctx, user, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, pub.Events())
}

func TestCartService_GetCart_TotalsAndUnavailable(t *testing.T) {
	svc, catalog, _ := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.ItemCount)

	_, err = svc.AddToCart(ctx, user, mug.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, user, tote.ID, 1)
	require.NoError(t, err)

	cart, err = svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, int64(2*1200+1899), cart.Subtotal)

	catalog.remove(tote.ID)
	cart, err = svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, int64(2400), cart.Subtotal)
	assert.Equal(t, []uuid.UUID{tote.ID}, cart.Unavailable)

	other, err := svc.GetCart(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	catalog.err = errors.New("catalog down")
	_, err = svc.GetCart(ctx, user)
	assert.Error(t, err)
}

func TestCartService_SetQuantity(t *testing.T) {
	svc, _, pub := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.SetQuantity(ctx, user, mug.ID, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddToCart(ctx, user, mug.ID, 1)
	require.NoError(t, err)

	item, err := svc.SetQuantity(ctx, user, mug.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)

	_, err = svc.SetQuantity(ctx, user, mug.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)

	item, err = svc.SetQuantity(ctx, user, mug.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, []string{events.CartItemAdded, events.CartItemRemoved}, pub.Types())
}

func TestCartService_DeleteOneFromCart(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, 2)
	require.NoError(t, err)

	deleted, item, err := svc.DeleteOneFromCart(ctx, mug.ID, user)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, item.Quantity)

	deleted, _, err = svc.DeleteOneFromCart(ctx, mug.ID, user)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = svc.DeleteOneFromCart(ctx, mug.ID, user)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	svc, _, pub := newTestCartService(t)
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, user, tote.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, other, tote.ID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFromCart(ctx, user, mug.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, user, mug.ID), ErrNotFound)

	require.NoError(t, svc.DeleteAllFromCart(ctx, user))
	require.NoError(t, svc.DeleteAllFromCart(ctx, user))

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.GetCart(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.ItemCount)

	types := pub.Types()
	assert.Equal(t, events.CartCleared, types[len(types)-1])
	assert.Equal(t, 1, countOf(types, events.CartCleared))
}

func countOf(items []string, v string) int {
	n := 0
	for _, it := range items {
		if it == v {
			n++
		}
	}
	return n
}

func TestCartService_MergeCart(t *testing.T) {
	svc, _, pub := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, 1)
	require.NoError(t, err)

	cart, err := svc.MergeCart(ctx, user, []transport.AddItemRequest{
		{ProductID: mug.ID, Quantity: 2},
		{ProductID: tote.ID, Quantity: 1},
		{ProductID: tote.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, cart.ItemCount)
	assert.Equal(t, int64(3*1200+2*1899), cart.Subtotal)
	assert.Contains(t, pub.Types(), events.CartMerged)

	_, err = svc.MergeCart(ctx, user, []transport.AddItemRequest{
		{ProductID: mug.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.MergeCart(ctx, user, []transport.AddItemRequest{
		{ProductID: mug.ID, Quantity: 1},
		{ProductID: tote.ID, Quantity: 0},
	})
	assert.ErrorIs(t, err, ErrValidation)

	cart, err = svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.ItemCount)
}

func TestCartService_LineQuantityCap(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddToCart(ctx, user, mug.ID, MaxLineQuantity)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, user, mug.ID, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.MergeCart(ctx, user, []transport.AddItemRequest{
		{ProductID: tote.ID, Quantity: MaxLineQuantity},
		{ProductID: tote.ID, Quantity: MaxLineQuantity},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.MergeCart(ctx, user, []transport.AddItemRequest{
		{ProductID: tote.ID, Quantity: 1},
		{ProductID: mug.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrValidation)

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, MaxLineQuantity, cart.Items[0].Quantity)
}
