package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	SearchHandler *SearchHTTP
	Ready         func(ctx context.Context) error
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

	e.GET("/search", d.SearchHandler.Search)
}
