package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

// CSRFSkipPaths are reachable without a CSRF token. The auth endpoints issue
// the session, so the client cannot hold a token yet.
var CSRFSkipPaths = []string{
	"/health/live",
	"/health/ready",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
}

func Common(logger *slog.Logger, csrfCfg csrf.Config) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestID(),
		loggingmw.RequestLogger(logger),
		echomw.Secure(),
		csrf.Middleware(csrfCfg),
	}
}
