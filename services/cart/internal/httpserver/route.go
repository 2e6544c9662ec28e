package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	CartHandler *CartHTTP
	JWTSecret   []byte
	AuthClient  authmw.Refresher
	Ready       func(ctx context.Context) error
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

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.DeleteAllFromCart)
	cart.POST("/merge", d.CartHandler.MergeCart)
	cart.DELETE("/items", d.CartHandler.DeleteOneFromCart)
	cart.PUT("/items/:product_id", d.CartHandler.SetQuantity)
	cart.DELETE("/items/:product_id", d.CartHandler.RemoveFromCart)
}
