package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/Skotchmaster/storefront/pkg/tokens"

	"github.com/Skotchmaster/storefront/gateway/internal/middleware"
)

var testSecret = []byte("gateway-router-secret")

const csrfToken = "csrf-test-token"

// named answers every request with "<name> <method> <path>".
func named(t *testing.T, name string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.Method+" "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newGateway(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := csrf.DefaultConfig()
	cfg.SkipPaths = middleware.CSRFSkipPaths

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		AuthURL:     named(t, "auth"),
		CatalogURL:  named(t, "catalog"),
		CartURL:     named(t, "cart"),
		WishlistURL: named(t, "wishlist"),
		OrderURL:    named(t, "order"),
		SearchURL:   named(t, "search"),
		JWTSecret:   testSecret,
		CSRFConfig:  cfg,
	}))
	return e
}

type call struct {
	method, path string
	role         string
	withCSRF     bool
}

func (c call) do(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, strings.NewReader("{}"))
	if c.role != "" {
		exp := time.Now().Add(time.Minute)
		tok, err := tokens.NewAccessToken(testSecret, uuid.NewString(), c.role, exp)
		require.NoError(t, err)
		req.AddCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, tok, "/", exp))
	}
	if c.withCSRF {
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: csrfToken})
		req.Header.Set("X-CSRF-Token", csrfToken)
		req.Header.Set("Origin", "http://example.com")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouting(t *testing.T) {
	e := newGateway(t)

	tests := []struct {
		name string
		call call
		code int
		body string
	}{
		{"health", call{method: http.MethodGet, path: "/health/live"}, http.StatusOK, ""},
		{"login skips csrf", call{method: http.MethodPost, path: "/api/v1/auth/login"}, http.StatusOK, "auth POST /login"},
		{"public catalog", call{method: http.MethodGet, path: "/api/v1/catalog/products"}, http.StatusOK, "catalog GET /catalog/products"},
		{"public search", call{method: http.MethodGet, path: "/api/v1/search"}, http.StatusOK, "search GET /search"},
		{"quote is public", call{method: http.MethodPost, path: "/api/v1/orders/quote", withCSRF: true}, http.StatusOK, "order POST /orders/quote"},
		{"cart needs session", call{method: http.MethodGet, path: "/api/v1/cart"}, http.StatusUnauthorized, ""},
		{"cart", call{method: http.MethodGet, path: "/api/v1/cart", role: tokens.RoleUser}, http.StatusOK, "cart GET /cart"},
		{"wishlist", call{method: http.MethodGet, path: "/api/v1/wishlist/abc", role: tokens.RoleUser}, http.StatusOK, "wishlist GET /wishlist/abc"},
		{"orders", call{method: http.MethodGet, path: "/api/v1/orders", role: tokens.RoleUser}, http.StatusOK, "order GET /orders"},
		{"mutation without csrf", call{method: http.MethodPost, path: "/api/v1/cart", role: tokens.RoleUser}, http.StatusForbidden, ""},
		{"mutation with csrf", call{method: http.MethodPost, path: "/api/v1/cart", role: tokens.RoleUser, withCSRF: true}, http.StatusOK, "cart POST /cart"},
		{"catalog write needs admin", call{method: http.MethodPost, path: "/api/v1/catalog/products", role: tokens.RoleUser, withCSRF: true}, http.StatusForbidden, ""},
		{"catalog write", call{method: http.MethodPost, path: "/api/v1/catalog/products", role: tokens.RoleAdmin, withCSRF: true}, http.StatusOK, "catalog POST /catalog/products"},
		{"catalog stats need admin", call{method: http.MethodGet, path: "/api/v1/catalog/admin/stats", role: tokens.RoleUser}, http.StatusForbidden, ""},
		{"order admin", call{method: http.MethodGet, path: "/api/v1/orders/admin/stats", role: tokens.RoleAdmin}, http.StatusOK, "order GET /orders/admin/stats"},
		{"order admin needs admin", call{method: http.MethodGet, path: "/api/v1/orders/admin", role: tokens.RoleUser}, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.call.do(t, e)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestReady(t *testing.T) {
	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		AuthURL:     "http://auth",
		CatalogURL:  "http://catalog",
		CartURL:     "http://cart",
		WishlistURL: "http://wishlist",
		OrderURL:    "http://order",
		JWTSecret:   testSecret,
		Ready:       func(context.Context) error { return errors.New("auth down") },
	}))
	rec := call{method: http.MethodGet, path: "/health/ready"}.do(t, e)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = call{method: http.MethodGet, path: "/api/v1/search"}.do(t, e)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	rec := call{method: http.MethodGet, path: "/api/v1/catalog/products"}.do(t, newGateway(t))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
}
