package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/dbtest"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/cart/internal/models"
	"github.com/Skotchmaster/storefront/services/cart/internal/repo"
	"github.com/Skotchmaster/storefront/services/cart/internal/service"
	"github.com/Skotchmaster/storefront/services/cart/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type staticCatalog map[uuid.UUID]catalogclient.Product

func (s staticCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalogclient.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, catalogclient.ErrNotFound
	}
	return &p, nil
}

func (s staticCatalog) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error) {
	found := map[uuid.UUID]catalogclient.Product{}
	var missing []uuid.UUID
	for _, id := range ids {
		if p, ok := s[id]; ok {
			found[id] = p
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

type client struct {
	t      *testing.T
	e      *echo.Echo
	cookie *http.Cookie
}

func newClient(t *testing.T, catalog staticCatalog) *client {
	t.Helper()
	svc := &service.CartService{
		Repo:    &repo.GormRepo{DB: dbtest.Open(t, models.All()...)},
		Catalog: catalog,
	}
	e := echo.New()
	Register(e, &Deps{CartHandler: &CartHTTP{Svc: svc}, JWTSecret: testSecret})

	exp := time.Now().Add(tokens.AccessTTL)
	tok, err := tokens.NewAccessToken(testSecret, uuid.NewString(), tokens.RoleUser, exp)
	require.NoError(t, err)
	return &client{t: t, e: e, cookie: jwthelp.CreateCookie(jwthelp.AccessCookie, tok, "/", exp)}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func (c *client) cart() transport.Cart {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/cart", "")
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var cart transport.Cart
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &cart))
	return cart
}

func TestCartRequiresAuth(t *testing.T) {
	c := newClient(t, staticCatalog{})
	c.cookie = nil
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/cart", "").Code)
}

func TestCartFlow(t *testing.T) {
	lamp := catalogclient.Product{ID: uuid.New(), Name: "Lamp", Price: 2599, Stock: 5}
	rug := catalogclient.Product{ID: uuid.New(), Name: "Rug", Price: 8900, Stock: 1}
	c := newClient(t, staticCatalog{lamp.ID: lamp, rug.ID: rug})

	rec := c.do(http.MethodPost, "/cart", `{"product_id":"`+lamp.ID.String()+`","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/cart", `{"product_id":"`+uuid.NewString()+`","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/cart", `{"product_id":"`+lamp.ID.String()+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cart := c.cart()
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, int64(5198), cart.Subtotal)

	rec = c.do(http.MethodPost, "/cart/merge", `{"items":[{"product_id":"`+rug.ID.String()+`","quantity":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, c.cart().ItemCount)

	rec = c.do(http.MethodPut, "/cart/items/"+lamp.ID.String(), `{"quantity":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, c.cart().ItemCount)

	rec = c.do(http.MethodDelete, "/cart/items", `{"product_id":"`+lamp.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var one transport.DeleteOneFromCartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.False(t, one.Deleted)
	assert.Equal(t, 3, one.Quantity)

	rec = c.do(http.MethodDelete, "/cart/items/"+rug.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodDelete, "/cart/items/"+rug.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPut, "/cart/items/"+lamp.ID.String(), `{"quantity":0}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodPost, "/cart", `{"product_id":"`+rug.ID.String()+`","quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = c.do(http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cart = c.cart()
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}
