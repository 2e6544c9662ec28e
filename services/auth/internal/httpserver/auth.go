package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/auth/internal/service"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
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

func setAuthCookies(c echo.Context, res *transport.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return fail(c, "register_error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return fail(c, "login_failed", err)
	}

	setAuthCookies(c, res)
	l.Info("login_successful", "user_id", res.UserID)

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  res.UserID,
		"is_admin": res.IsAdmin,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	refreshCookie, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, refreshCookie.Value)
	if err != nil {
		clearAuthCookies(c)
		return fail(c, "refresh_error", err)
	}

	setAuthCookies(c, res)
	return c.JSON(http.StatusOK, transport.RefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		IsAdmin:      res.IsAdmin,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if refreshCookie, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		if err := h.Svc.LogOut(ctx, refreshCookie.Value); err != nil {
			clearAuthCookies(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	clearAuthCookies(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
