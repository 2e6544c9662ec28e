package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/cart", ok)
	e.POST("/cart", ok)
	e.POST("/login", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	return token
}

func TestMiddleware_SafeMethodIssuesToken(t *testing.T) {
	e := newEcho(DefaultConfig())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, cookie.Value, rec.Header().Get("X-CSRF-Token"))
	assert.False(t, cookie.HttpOnly)
}

func postCart(e *echo.Echo, token, header string, hdrs map[string]string) int {
	req := httptest.NewRequest(http.MethodPost, "/cart", nil)
	req.Host = "example.com"
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	for k, v := range hdrs {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware_UnsafeMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustedOrigins = []string{"https://shop.example.org/"}
	e := newEcho(cfg)
	token := issueToken(t, e)

	tests := []struct {
		name   string
		header string
		hdrs   map[string]string
		want   int
	}{
		{name: "matching token", header: token, hdrs: map[string]string{"Origin": "http://example.com"}, want: http.StatusNoContent},
		{name: "missing token", hdrs: map[string]string{"Origin": "http://example.com"}, want: http.StatusForbidden},
		{name: "wrong token", header: token[:len(token)-1] + "x", hdrs: map[string]string{"Origin": "http://example.com"}, want: http.StatusForbidden},
		{name: "foreign origin", header: token, hdrs: map[string]string{"Origin": "http://evil.test"}, want: http.StatusForbidden},
		{name: "opaque origin", header: token, hdrs: map[string]string{"Origin": "null"}, want: http.StatusForbidden},
		{name: "no origin", header: token, want: http.StatusForbidden},
		{name: "referer fallback", header: token, hdrs: map[string]string{"Referer": "http://example.com/checkout"}, want: http.StatusNoContent},
		{name: "trusted origin", header: token, hdrs: map[string]string{"Origin": "https://SHOP.example.org"}, want: http.StatusNoContent},
		{name: "forwarded https", header: token, hdrs: map[string]string{"Origin": "https://example.com", "X-Forwarded-Proto": "https"}, want: http.StatusNoContent},
		{name: "scheme mismatch", header: token, hdrs: map[string]string{"Origin": "https://example.com"}, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postCart(e, token, tt.header, tt.hdrs))
		})
	}
}

func TestMiddleware_FormField(t *testing.T) {
	e := newEcho(DefaultConfig())
	token := issueToken(t, e)

	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(url.Values{"csrf_token": {token}}.Encode()))
	req.Host = "example.com"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Origin", "http://example.com")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_KeepsExistingToken(t *testing.T) {
	e := newEcho(DefaultConfig())
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "existing"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "existing", rec.Header().Get("X-CSRF-Token"))
}

func TestMiddleware_OriginCheckDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableOriginCheck = true
	e := newEcho(cfg)
	token := issueToken(t, e)

	assert.Equal(t, http.StatusNoContent, postCart(e, token, token, nil))
	assert.Equal(t, http.StatusForbidden, postCart(e, token, "", nil))
}

func TestMiddleware_SkipPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/login"}
	e := newEcho(cfg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_Skipper(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Skipper = func(c echo.Context) bool { return c.Request().Header.Get("X-Internal") == "1" }
	e := newEcho(cfg)

	req := httptest.NewRequest(http.MethodPost, "/cart", nil)
	req.Header.Set("X-Internal", "1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
