package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

var ErrUnauthorized = errors.New("unauthorized")

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret  []byte
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(jwthelp.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return m.refreshAndContinue(c, next, validator, "")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			if validator != nil {
				if validationErr := validator(claims); validationErr != nil {
					return validationErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		return m.refreshAndContinue(c, next, validator, accessCookie.Value)
	}
}

func (m *AutoRefreshMiddleware) refreshAndContinue(c echo.Context, next echo.HandlerFunc, validator ValidatorFunc, access string) error {
	refreshCookie, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		if access == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	if m.AuthClient == nil {
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
	}

	refreshResp, err := m.AuthClient.RefreshTokens(c.Request().Context(), refreshCookie.Value, access)
	if err != nil {
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed: "+err.Error())
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, refreshResp.AccessToken, "/", time.Unix(refreshResp.AccessExp, 0)))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, refreshResp.RefreshToken, "/", time.Unix(refreshResp.RefreshExp, 0)))

	newClaims, err := tokens.AccessClaimsFromToken(refreshResp.AccessToken, m.JWTSecret)
	if err != nil {
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
	}

	if validator != nil {
		if validationErr := validator(newClaims); validationErr != nil {
			return validationErr
		}
	}

	setUserContext(c, newClaims)
	return next(c)
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}

// UserID returns the authenticated user's id set by RequireAuth or RequireAdmin.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(CtxRole).(string)
	return role == tokens.RoleAdmin
}

// AccessToken returns the raw access token the request was authenticated with.
func AccessToken(c echo.Context) string {
	ck, err := c.Cookie(jwthelp.AccessCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}
