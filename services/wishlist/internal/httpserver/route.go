package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	WishlistHandler *WishlistHTTP
	JWTSecret       []byte
	AuthClient      authmw.Refresher
	Ready           func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	w := e.Group("/wishlist", authMW.RequireAuth)
	w.GET("", d.WishlistHandler.List)
	w.POST("", d.WishlistHandler.Add)
	w.DELETE("", d.WishlistHandler.Clear)
	w.GET("/:product_id", d.WishlistHandler.Contains)
	w.DELETE("/:product_id", d.WishlistHandler.Remove)
	w.POST("/:product_id/toggle", d.WishlistHandler.Toggle)
}
