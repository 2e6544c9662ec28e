package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/gateway/internal/middleware"
	"github.com/Skotchmaster/storefront/gateway/internal/proxy"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const apiPrefix = "/api/v1"

var mutating = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

type Deps struct {
	AuthURL     string
	CatalogURL  string
	CartURL     string
	WishlistURL string
	OrderURL    string
	SearchURL   string

	JWTSecret  []byte
	CSRFConfig csrf.Config
	Logger     *slog.Logger
	Ready      func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger, d.CSRFConfig) {
		e.Use(m)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authProxy, err := proxy.New("auth", d.AuthURL, apiPrefix+"/auth")
	if err != nil {
		return err
	}
	catalogProxy, err := proxy.New("catalog", d.CatalogURL, apiPrefix)
	if err != nil {
		return err
	}
	cartProxy, err := proxy.New("cart", d.CartURL, apiPrefix)
	if err != nil {
		return err
	}
	wishlistProxy, err := proxy.New("wishlist", d.WishlistURL, apiPrefix)
	if err != nil {
		return err
	}
	orderProxy, err := proxy.New("order", d.OrderURL, apiPrefix)
	if err != nil {
		return err
	}

	authed := middleware.Authenticate(d.JWTSecret)
	admin := middleware.RequireRole(tokens.RoleAdmin)

	e.Any(apiPrefix+"/auth/*", authProxy)

	e.GET(apiPrefix+"/catalog/*", catalogProxy)
	e.GET(apiPrefix+"/catalog/admin/*", catalogProxy, authed, admin)
	e.Match(mutating, apiPrefix+"/catalog/*", catalogProxy, authed, admin)

	if d.SearchURL != "" {
		searchProxy, err := proxy.New("search", d.SearchURL, apiPrefix)
		if err != nil {
			return err
		}
		e.GET(apiPrefix+"/search", searchProxy)
	}

	for _, path := range []string{"/cart", "/cart/*"} {
		e.Any(apiPrefix+path, cartProxy, authed)
	}
	for _, path := range []string{"/wishlist", "/wishlist/*"} {
		e.Any(apiPrefix+path, wishlistProxy, authed)
	}

	e.POST(apiPrefix+"/orders/quote", orderProxy)
	e.Any(apiPrefix+"/orders/admin/*", orderProxy, authed, admin)
	e.Any(apiPrefix+"/orders/admin", orderProxy, authed, admin)
	for _, path := range []string{"/orders", "/orders/*"} {
		e.Any(apiPrefix+path, orderProxy, authed)
	}

	return nil
}
