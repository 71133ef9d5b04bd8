package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/forgesite/auth-service/pkg/tokens"
)

const userIDKey = "user_id"

type BearerAuth struct {
	AccessSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{AccessSecret: secret}
}

// RequireAuth verifies the bearer access token. No token at all is 401;
// a token that fails verification is 403.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.Parse(tokenStr, m.AccessSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "invalid or expired token")
		}

		c.Set(userIDKey, claims.UserID)
		return next(c)
	}
}

// UserID returns the id attached by RequireAuth.
func UserID(c echo.Context) string {
	if v, ok := c.Get(userIDKey).(string); ok {
		return v
	}
	return ""
}
