package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
)

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("me_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	me, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(c, "me_error", err)
	}
	return c.JSON(http.StatusOK, me)
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_me")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("update_me_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_me_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	profile, err := h.Svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return fail(c, "update_me_error", err)
	}

	l.Info("update_me_success")
	return c.JSON(http.StatusOK, profile)
}

func (h *AuthHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return fail(c, "user_stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}
