package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	JWTSecret      []byte
	AuthClient     authmw.Refresher
	Ready          func(ctx context.Context) error
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

	e.GET("/catalog/categories", d.CatalogHandler.Categories)

	products := e.Group("/catalog/products")
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	products.POST("", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct, authMW.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, authMW.RequireAdmin)

	e.GET("/catalog/admin/stats", d.CatalogHandler.Stats, authMW.RequireAdmin)
}
