package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/cart/internal/service"
	"github.com/Skotchmaster/storefront/services/cart/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
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

func userID(c echo.Context, event string) (uuid.UUID, error) {
	id, err := authmw.UserID(c)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn(event, "status", 401, "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func productParam(c echo.Context, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn(event, "status", 400, "reason", "product_id not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "product_id not a uuid")
	}
	return id, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "get_cart_error")
	if err != nil {
		return err
	}

	cart, err := h.Svc.GetCart(ctx, uid)
	if err != nil {
		return fail(c, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	uid, err := userID(c, "add_to_cart_error")
	if err != nil {
		return err
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddToCart(ctx, uid, req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", item.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	uid, err := userID(c, "set_quantity_error")
	if err != nil {
		return err
	}
	pid, err := productParam(c, "set_quantity_error")
	if err != nil {
		return err
	}

	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.SetQuantity(ctx, uid, pid, req.Quantity)
	if err != nil {
		return fail(c, "set_quantity_error", err)
	}
	if item == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "remove_from_cart_error")
	if err != nil {
		return err
	}
	pid, err := productParam(c, "remove_from_cart_error")
	if err != nil {
		return err
	}

	if err := h.Svc.RemoveFromCart(ctx, uid, pid); err != nil {
		return fail(c, "remove_from_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) DeleteOneFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete_one")

	uid, err := userID(c, "delete_one_from_cart_error")
	if err != nil {
		return err
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("delete_one_from_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	deleted, item, err := h.Svc.DeleteOneFromCart(ctx, req.ProductID, uid)
	if err != nil {
		return fail(c, "delete_one_from_cart_error", err)
	}

	resp := transport.DeleteOneFromCartResponse{ProductID: req.ProductID, Deleted: deleted}
	if !deleted {
		resp.Quantity = item.Quantity
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) DeleteAllFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c, "delete_all_from_cart_error")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteAllFromCart(ctx, uid); err != nil {
		return fail(c, "delete_all_from_cart_error", err)
	}

	logging.FromContext(ctx).Info("cart_cleared", "user_id", uid)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) MergeCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.merge")

	uid, err := userID(c, "merge_cart_error")
	if err != nil {
		return err
	}

	var req transport.MergeRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("merge_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.MergeCart(ctx, uid, req.Items)
	if err != nil {
		return fail(c, "merge_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}
