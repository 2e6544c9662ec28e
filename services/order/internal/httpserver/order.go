package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/order/internal/models"
	"github.com/Skotchmaster/storefront/services/order/internal/service"
	"github.com/Skotchmaster/storefront/services/order/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

type orderPage struct {
	Data []models.Order `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
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

func userID(c echo.Context, event string) (uuid.UUID, error) {
	id, err := authmw.UserID(c)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn(event, "status", 401, "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func orderParam(c echo.Context, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn(event, "status", 400, "reason", "id not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}
	return id, nil
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

func (h *OrderHTTP) Quote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.quote")

	var req transport.QuoteRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("quote_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	quote, err := h.Svc.Quote(ctx, req.Items)
	if err != nil {
		return fail(c, "quote_error", err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	uid, err := userID(c, "place_order_error")
	if err != nil {
		return err
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.PlaceOrder(ctx, uid, req)
	if err != nil {
		return fail(c, "place_order_error", err)
	}

	l.Info("place_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "list_orders_error")
	if err != nil {
		return err
	}

	page, offset, limit := pageParams(c)
	total, orders, err := h.Svc.ListOrders(ctx, uid, offset, limit)
	if err != nil {
		return fail(c, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orderPage{Data: orders, Meta: pagination.NewMeta(page, limit, offset, total)})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "get_order_error")
	if err != nil {
		return err
	}
	id, err := orderParam(c, "get_order_error")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, uid, id, authmw.IsAdmin(c))
	if err != nil {
		return fail(c, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Timeline(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "order_timeline_error")
	if err != nil {
		return err
	}
	id, err := orderParam(c, "order_timeline_error")
	if err != nil {
		return err
	}

	entries, err := h.Svc.Timeline(ctx, uid, id, authmw.IsAdmin(c))
	if err != nil {
		return fail(c, "order_timeline_error", err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	uid, err := userID(c, "cancel_order_error")
	if err != nil {
		return err
	}
	id, err := orderParam(c, "cancel_order_error")
	if err != nil {
		return err
	}

	order, err := h.Svc.CancelOrder(ctx, uid, id)
	if err != nil {
		return fail(c, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	page, offset, limit := pageParams(c)
	total, orders, err := h.Svc.ListAll(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(c, "list_all_orders_error", err)
	}
	return c.JSON(http.StatusOK, orderPage{Data: orders, Meta: pagination.NewMeta(page, limit, offset, total)})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := orderParam(c, "update_status_error")
	if err != nil {
		return err
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req)
	if err != nil {
		return fail(c, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Stats(c echo.Context) error {
	stats, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return fail(c, "order_stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}
