package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RateLimiter creates a new rate limiter middleware with a sensible default
// configuration. It limits requests to 10 per minute per IP address for the
// routes it's applied to, which is plenty for login and signup forms.
func RateLimiter() echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		// NewRateLimiterMemoryStore is a simple in-memory store suitable
		// for single-instance deployments.
		Store: middleware.NewRateLimiterMemoryStore(10),

		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
