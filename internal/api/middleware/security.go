// Package middleware holds Echo middleware for the API server.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// securityHeaders are set on every response.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "SAMEORIGIN",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "frame-ancestors 'self'",
}

// SecurityHeaders adds browser hardening headers. API responses are never
// cached since they describe folders that change underneath the client.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range securityHeaders {
				h.Set(name, value)
			}

			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/api/") && !strings.HasSuffix(path, "/ws") {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
