package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core/user"
)

// activeUserMiddleware loads the signed-in user and turns disabled accounts away.
func activeUserMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return user.NewAuthError(user.CodeUserDisabled)
			}
			return next(ctx)
		}
	}
}
