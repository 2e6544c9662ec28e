package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/auth/internal/service"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
	Ready       func(ctx context.Context) error
}

// localRefresher lets the auth service refresh expired sessions in-process
// instead of calling itself over HTTP.
type localRefresher struct {
	svc *service.AuthService
}

func (r localRefresher) RefreshTokens(ctx context.Context, refreshToken, _ string) (*authclient.RefreshResponse, error) {
	res, err := r.svc.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &authclient.RefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		IsAdmin:      res.IsAdmin,
	}, nil
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

	authMw := authmw.NewAutoRefreshMiddleware(d.JWTSecret, localRefresher{svc: d.AuthHandler.Svc})

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.LogOut)

	e.GET("/me", d.AuthHandler.Me, authMw.RequireAuth)
	e.PATCH("/me", d.AuthHandler.UpdateMe, authMw.RequireAuth)

	admin := e.Group("/admin", authMw.RequireAdmin)
	admin.GET("/stats", d.AuthHandler.Stats)
}
