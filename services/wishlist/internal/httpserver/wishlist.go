package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/service"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/transport"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func fail(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func ids(c echo.Context, event string, withProduct bool) (userID, productID uuid.UUID, err error) {
	l := logging.FromContext(c.Request().Context())
	userID, err = authmw.UserID(c)
	if err != nil {
		l.Warn(event, "status", 401, "error", err)
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !withProduct {
		return userID, uuid.Nil, nil
	}
	productID, err = uuid.Parse(c.Param("product_id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "product_id not a uuid", "error", err)
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "product_id not a uuid")
	}
	return userID, productID, nil
}

func (h *WishlistHTTP) List(c echo.Context) error {
	uid, _, err := ids(c, "list_wishlist_error", false)
	if err != nil {
		return err
	}
	list, err := h.Svc.List(c.Request().Context(), uid)
	if err != nil {
		return fail(c, "list_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	uid, _, err := ids(c, "add_wishlist_error", false)
	if err != nil {
		return err
	}

	var req transport.AddRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("add_wishlist_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Add(ctx, uid, req.ProductID)
	if err != nil {
		return fail(c, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *WishlistHTTP) Contains(c echo.Context) error {
	uid, pid, err := ids(c, "wishlist_contains_error", true)
	if err != nil {
		return err
	}
	in, err := h.Svc.Contains(c.Request().Context(), uid, pid)
	if err != nil {
		return fail(c, "wishlist_contains_error", err)
	}
	return c.JSON(http.StatusOK, transport.ContainsResponse{ProductID: pid, InWishlist: in})
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	uid, pid, err := ids(c, "remove_wishlist_error", true)
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(c.Request().Context(), uid, pid); err != nil {
		return fail(c, "remove_wishlist_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHTTP) Toggle(c echo.Context) error {
	uid, pid, err := ids(c, "toggle_wishlist_error", true)
	if err != nil {
		return err
	}
	in, err := h.Svc.Toggle(c.Request().Context(), uid, pid)
	if err != nil {
		return fail(c, "toggle_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, transport.ContainsResponse{ProductID: pid, InWishlist: in})
}

func (h *WishlistHTTP) Clear(c echo.Context) error {
	uid, _, err := ids(c, "clear_wishlist_error", false)
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(c.Request().Context(), uid); err != nil {
		return fail(c, "clear_wishlist_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
