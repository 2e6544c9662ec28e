package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/service"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

type productPage struct {
	Data []models.Product `json:"data"`
	Meta pagination.Meta  `json:"meta"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit = pagination.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return page, offset, limit
}

func parseFilter(c echo.Context) (transport.ProductFilter, error) {
	f := transport.ProductFilter{
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	}
	for name, dst := range map[string]**int64{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return f, errors.New(name + " must be a non-negative integer")
		}
		*dst = &v
	}
	if raw := c.QueryParam("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("featured must be a boolean")
		}
		f.Featured = &v
	}
	if raw := c.QueryParam("in_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("in_stock must be a boolean")
		}
		f.InStock = v
	}
	return f, nil
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	filter, err := parseFilter(c)
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "bad filter", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, offset, limit := pageParams(c)
	total, items, err := h.Svc.ListProducts(ctx, filter, offset, limit)
	if err != nil {
		return fail(c, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, productPage{
		Data: items,
		Meta: pagination.NewMeta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()

	page, offset, limit := pageParams(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, productPage{
		Data: items,
		Meta: pagination.NewMeta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	cats, err := h.Svc.Categories(c.Request().Context())
	if err != nil {
		return fail(c, "get_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(c, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		return fail(c, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(c, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) Stats(c echo.Context) error {
	stats, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return fail(c, "catalog_stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}
