package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/enrollment/core"
)

// actorMiddleware exposes the staff member behind the token to handlers and the error logger.
func actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if claims, ok := getContextClaims(ctx); ok {
			ctx.Set(contextActorKey, core.Actor{
				ID:       claims.Subject,
				Username: claims.Username,
				Email:    claims.Email,
			})
		}
		return next(ctx)
	}
}
