package middleware

// identity.go holds the context helpers shared by the auth and rate limit
// middleware. JWTAuth stores the token subject under "user_id"; requests
// without one are anonymous.

import "github.com/labstack/echo/v4"

// Subject returns the authenticated subject, or "" for anonymous requests.
func Subject(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

func currentUserID(c echo.Context) string {
	if s := Subject(c); s != "" {
		return s
	}
	return "anon"
}
