package middleware

import (
	"net/http"
	"strings"
	"time"

	"postalops/pkg/utils"

	jsonres "postalops/pkg/response"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware validates the bearer token and exposes the operator
// identity to handlers.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing authorization header", nil,
				))
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid authorization format", nil,
				))
			}

			tokenString := tokenParts[1]

			claims, err := utils.ParseJWT(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid token", nil,
				))
			}

			expAt, err := claims.GetExpirationTime()
			if err != nil {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Status Forbidden", nil,
				))
			}

			if time.Now().After(expAt.Time) {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Token expired", nil,
				))
			}

			userID, ok := claims["user_id"].(float64)
			if !ok {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Invalid user ID in token", nil,
				))
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", uint(userID))
			c.Set("role", role)
			c.Set("token", tokenString)

			return next(c)
		}
	}
}
