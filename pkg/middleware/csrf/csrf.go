// Package csrf protects cookie-authenticated endpoints with the double-submit
// cookie pattern plus an Origin/Referer check.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const CtxToken = "csrf_token"

var (
	ErrInvalidOrigin = echo.NewHTTPError(http.StatusForbidden, "invalid origin")
	ErrInvalidToken  = echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
)

type Config struct {
	CookieName string
	HeaderName string
	FormField  string

	CookiePath string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	// TrustedOrigins are scheme://host origins, besides the request's own,
	// that may send unsafe requests.
	TrustedOrigins     []string
	DisableOriginCheck bool

	// SkipPaths are matched exactly against the request path.
	SkipPaths []string
	Skipper   echomw.Skipper
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		FormField:  "csrf_token",
		CookiePath: "/",
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     24 * time.Hour,
	}
}

type guard struct {
	cfg     Config
	skip    map[string]bool
	trusted map[string]bool
}

func newGuard(cfg Config) *guard {
	def := DefaultConfig()
	cfg.CookieName = orDefault(cfg.CookieName, def.CookieName)
	cfg.HeaderName = orDefault(cfg.HeaderName, def.HeaderName)
	cfg.FormField = orDefault(cfg.FormField, def.FormField)
	cfg.CookiePath = orDefault(cfg.CookiePath, def.CookiePath)
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	g := &guard{cfg: cfg, skip: map[string]bool{}, trusted: map[string]bool{}}
	for _, p := range cfg.SkipPaths {
		g.skip[p] = true
	}
	for _, o := range cfg.TrustedOrigins {
		if key, ok := originKey(o); ok {
			g.trusted[key] = true
		}
	}
	return g
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Middleware issues the token on safe methods (cookie plus response header)
// and requires unsafe methods to echo it back in the header or a form field.
func Middleware(cfg Config) echo.MiddlewareFunc {
	g := newGuard(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.skipped(c) {
				return next(c)
			}

			req := c.Request()
			token := ""
			if ck, err := req.Cookie(g.cfg.CookieName); err == nil {
				token = ck.Value
			}

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if token == "" {
					token = rand.Text()
				}
				g.setCookie(c, token)
				c.Response().Header().Set(g.cfg.HeaderName, token)
				c.Set(CtxToken, token)
				return next(c)
			}

			l := logging.FromContext(req.Context())
			if !g.cfg.DisableOriginCheck && !g.originAllowed(req) {
				l.Warn("csrf_rejected", "reason", "origin", "path", req.URL.Path, "origin", req.Header.Get("Origin"))
				return ErrInvalidOrigin
			}
			if !g.tokenMatches(req, token) {
				l.Warn("csrf_rejected", "reason", "token", "path", req.URL.Path)
				return ErrInvalidToken
			}

			c.Set(CtxToken, token)
			return next(c)
		}
	}
}

func (g *guard) skipped(c echo.Context) bool {
	if g.skip[c.Request().URL.Path] {
		return true
	}
	return g.cfg.Skipper != nil && g.cfg.Skipper(c)
}

func (g *guard) setCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     g.cfg.CookiePath,
		Domain:   g.cfg.Domain,
		Secure:   g.cfg.Secure,
		HttpOnly: false, // the client script reads it back
		MaxAge:   int(g.cfg.MaxAge.Seconds()),
		SameSite: g.cfg.SameSite,
	})
}

func (g *guard) tokenMatches(req *http.Request, token string) bool {
	provided := req.Header.Get(g.cfg.HeaderName)
	if provided == "" && isForm(req) {
		provided = req.FormValue(g.cfg.FormField)
	}
	if token == "" || len(token) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(provided)) == 1
}

// originAllowed accepts the request's own origin and the trusted ones. The
// Referer is consulted only when Origin is absent.
func (g *guard) originAllowed(req *http.Request) bool {
	src := req.Header.Get("Origin")
	if src == "" {
		src = req.Header.Get("Referer")
	}
	key, ok := originKey(src)
	if !ok {
		return false
	}
	if key == strings.ToLower(schemeOf(req)+"://"+req.Host) {
		return true
	}
	return g.trusted[key]
}

func originKey(raw string) (string, bool) {
	if raw == "" || raw == "null" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

func isForm(req *http.Request) bool {
	ct := req.Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
