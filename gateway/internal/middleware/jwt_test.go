package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var secret = []byte("gateway-test-secret")

func access(t *testing.T, role string, exp time.Time) *http.Cookie {
	t.Helper()
	tok, err := tokens.NewAccessToken(secret, uuid.NewString(), role, exp)
	require.NoError(t, err)
	return jwthelp.CreateCookie(jwthelp.AccessCookie, tok, "/", exp)
}

func run(mws []echo.MiddlewareFunc, cookies ...*http.Cookie) (int, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code, c
		}
		return http.StatusInternalServerError, c
	}
	return rec.Code, c
}

func TestAuthenticate(t *testing.T) {
	auth := []echo.MiddlewareFunc{Authenticate(secret)}
	refresh := &http.Cookie{Name: jwthelp.RefreshCookie, Value: "opaque"}
	expired := access(t, tokens.RoleUser, time.Now().Add(-time.Minute))

	code, c := run(auth, access(t, tokens.RoleUser, time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, tokens.RoleUser, c.Get(CtxRole))
	assert.NotEmpty(t, c.Get(CtxUserID))

	code, _ = run(auth)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = run(auth, expired)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, c = run(auth, expired, refresh)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, c.Get(CtxRole))

	code, _ = run(auth, refresh)
	assert.Equal(t, http.StatusOK, code)

	code, _ = run(auth, &http.Cookie{Name: jwthelp.AccessCookie, Value: "garbage"}, refresh)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRole(t *testing.T) {
	mws := []echo.MiddlewareFunc{Authenticate(secret), RequireRole(tokens.RoleAdmin)}

	code, _ := run(mws, access(t, tokens.RoleUser, time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = run(mws, access(t, tokens.RoleAdmin, time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusOK, code)

	code, _ = run(mws, &http.Cookie{Name: jwthelp.RefreshCookie, Value: "opaque"})
	assert.Equal(t, http.StatusOK, code)
}
