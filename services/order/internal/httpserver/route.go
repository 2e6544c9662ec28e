package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	JWTSecret    []byte
	AuthClient   authmw.Refresher
	Ready        func(ctx context.Context) error
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

	e.POST("/orders/quote", d.OrderHandler.Quote)

	orders := e.Group("/orders")
	orders.GET("/admin", d.OrderHandler.ListAll, authMW.RequireAdmin)
	orders.GET("/admin/stats", d.OrderHandler.Stats, authMW.RequireAdmin)
	orders.PATCH("/admin/:id/status", d.OrderHandler.UpdateStatus, authMW.RequireAdmin)

	orders.POST("", d.OrderHandler.PlaceOrder, authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
	orders.GET("/:id/timeline", d.OrderHandler.Timeline, authMW.RequireAuth)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder, authMW.RequireAuth)
}
