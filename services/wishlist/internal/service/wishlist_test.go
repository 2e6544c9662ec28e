package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/dbtest"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/models"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/repo"
)

type fakeCatalog struct {
	products map[uuid.UUID]catalogclient.Product
	listErr  error
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalogclient.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalogclient.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error) {
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	found := map[uuid.UUID]catalogclient.Product{}
	var missing []uuid.UUID
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			found[id] = p
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func newTestWishlist(t *testing.T, products ...catalogclient.Product) (*WishlistService, *fakeCatalog, *events.Memory) {
	t.Helper()
	catalog := &fakeCatalog{products: map[uuid.UUID]catalogclient.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	pub := &events.Memory{}
	return &WishlistService{
		Repo:    &repo.GormRepo{DB: dbtest.Open(t, models.All()...)},
		Catalog: catalog,
		Events:  pub,
	}, catalog, pub
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	p := catalogclient.Product{ID: uuid.New(), Name: "Lamp", Price: 2599}
	svc, _, pub := newTestWishlist(t, p)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	second, err := svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
	require.NotNil(t, list.Items[0].Product)
	assert.Equal(t, "Lamp", list.Items[0].Product.Name)

	assert.Equal(t, []string{events.WishlistItemAdded}, pub.Types())

	_, err = svc.Add(ctx, user, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Add(ctx, user, uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWishlist_ListNewestFirst(t *testing.T) {
	a := catalogclient.Product{ID: uuid.New(), Name: "A"}
	b := catalogclient.Product{ID: uuid.New(), Name: "B"}
	svc, catalog, _ := newTestWishlist(t, a, b)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Add(ctx, user, a.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Add(ctx, user, b.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, b.ID, list.Items[0].ProductID)
	assert.Equal(t, a.ID, list.Items[1].ProductID)

	catalog.listErr = errors.New("catalog down")
	list, err = svc.List(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Nil(t, list.Items[0].Product)
}

func TestWishlist_RemoveToggleContainsClear(t *testing.T) {
	p := catalogclient.Product{ID: uuid.New(), Name: "Rug"}
	q := catalogclient.Product{ID: uuid.New(), Name: "Vase"}
	svc, _, pub := newTestWishlist(t, p, q)
	ctx := context.Background()
	user := uuid.New()

	assert.ErrorIs(t, svc.Remove(ctx, user, p.ID), ErrNotFound)

	in, err := svc.Toggle(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = svc.Contains(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = svc.Toggle(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, in)

	in, err = svc.Contains(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, in)

	_, err = svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, q.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, user, q.ID))

	require.NoError(t, svc.Clear(ctx, user))
	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.Empty(t, list.Items)

	assert.Equal(t, []string{
		events.WishlistItemAdded,
		events.WishlistItemRemoved,
		events.WishlistItemAdded,
		events.WishlistItemAdded,
		events.WishlistItemRemoved,
	}, pub.Types())
}
