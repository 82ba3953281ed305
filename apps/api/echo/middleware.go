package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core/user"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// featureMiddleware gates a route on a resolved capability: superuser always
// passes, per-user overrides beat roles, roles beat the default set.
func featureMiddleware(svc user.ServiceInterface, feat user.Feature) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			caps, err := svc.Capabilities(ctx.Request().Context(), ctxUsr)
			if err != nil {
				return errors.Wrap(err, "resolving capabilities")
			}
			if caps[feat] {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
