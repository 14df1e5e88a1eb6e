package middleware

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

const UserContextKey = "user"

// SessionName is the cookie session carrying the auth token.
const SessionName = "chatapp_session"

// tokenKey is the session value holding the database session token.
const tokenKey = "auth_token"

// SetAuthToken stores the database session token in the cookie session.
// An empty token expires the session, logging the client out.
func SetAuthToken(c echo.Context, token string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	if token == "" {
		delete(sess.Values, tokenKey)
		sess.Options.MaxAge = -1
	} else {
		sess.Values[tokenKey] = token
	}
	return sess.Save(c.Request(), c.Response())
}

// AuthToken returns the token from the cookie session, or "" when the
// client has no session.
func AuthToken(c echo.Context) string {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

// Auth creates a middleware that protects routes that require authentication.
// It validates the token carried in the cookie session and stores the
// resolved user in the request context under UserContextKey.
func Auth(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := AuthToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			user, err := users.Authenticate(c.Request().Context(), token)
			if err != nil || user == nil {
				// Expire the dead session so clients stop sending it.
				if err := SetAuthToken(c, ""); err != nil {
					c.Logger().Warnf("could not clear session: %v", err)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser extracts the authenticated user set by Auth. Returns nil when
// the route is not behind the Auth middleware.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}
