// Package proxy forwards gateway requests to the backend services.
package proxy

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// New returns a handler that forwards to target after removing stripPrefix
// from the request path.
func New(name, target, stripPrefix string) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = newTransport()
	p.FlushInterval = 100 * time.Millisecond

	director := p.Director
	p.Director = func(req *http.Request) {
		host := req.Host
		proto := "http"
		if req.TLS != nil {
			proto = "https"
		} else if xf := req.Header.Get("X-Forwarded-Proto"); xf != "" {
			proto = xf
		}

		if stripPrefix != "" {
			req.URL.Path = strip(req.URL.Path, stripPrefix)
			if req.URL.RawPath != "" {
				req.URL.RawPath = strip(req.URL.RawPath, stripPrefix)
			}
		}

		director(req)

		if req.Header.Get("X-Forwarded-Proto") == "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		if req.Header.Get("X-Forwarded-Host") == "" && host != "" {
			req.Header.Set("X-Forwarded-Host", host)
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.FromContext(r.Context()).Error("upstream_error", "upstream", name, "status", http.StatusBadGateway, "error", err)
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
	}

	return func(c echo.Context) error {
		p.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}

func strip(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return "/"
	}
	return rest
}
