package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/search/internal/models"
	"github.com/Skotchmaster/storefront/services/search/internal/service"
)

type SearchHTTP struct {
	Svc *service.SearchService
}

type results struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
	Meta     pagination.Meta  `json:"meta"`
}

func (h *SearchHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.search")

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, products, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("search_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(http.StatusOK, results{
		Total:    total,
		Products: products,
		Meta:     pagination.NewMeta(page, limit, offset, total),
	})
}
