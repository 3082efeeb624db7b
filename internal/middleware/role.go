package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that lets a request through when the
// authenticated claim carries at least one of roles.  It must run after
// JWTAuth; without a claim the request is answered with 401, with a claim
// but no matching role with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claim, ok := ClaimFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": ReasonMissing.Message()})
			}
			for _, r := range roles {
				if claim.HasRole(r) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
	}
}
