package middleware

import (
	"errors"
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Authenticate rejects requests that carry no usable session. An expired
// access token is let through when a refresh cookie is present so the
// upstream service can rotate the pair.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context())

			access, err := c.Cookie(jwthelp.AccessCookie)
			if err != nil || access.Value == "" {
				if hasRefresh(c) {
					return next(c)
				}
				l.Warn("gateway_auth_error", "status", 401, "reason", "missing access token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := tokens.AccessClaimsFromToken(access.Value, secret)
			switch {
			case err == nil:
			case errors.Is(err, jwt.ErrTokenExpired) && hasRefresh(c):
				return next(c)
			default:
				l.Warn("gateway_auth_error", "status", 401, "reason", "invalid access token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}
			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

func hasRefresh(c echo.Context) bool {
	ck, err := c.Cookie(jwthelp.RefreshCookie)
	return err == nil && ck.Value != ""
}

// RequireRole enforces roles for requests Authenticate resolved. Requests
// passed through for a refresh carry no role yet and are left to the upstream.
func RequireRole(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return next(c)
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}
