package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/workspace"
)

const contextRoleKey = "workspaceRole"

// workspaceRoleMiddleware lets through users whose role in the `:id` workspace grants at least `wanted`.
// Unknown workspaces and outsiders both get a 403.
func workspaceRoleMiddleware(svc *workspace.Service, wanted string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			role, err := svc.Role(ctx.Request().Context(), usr.ID, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "resolving workspace role")
			}
			if !workspace.HasAccess(role, wanted) {
				return errHttpForbidden
			}
			ctx.Set(contextRoleKey, role)
			return next(ctx)
		}
	}
}

func getContextRole(ctx echo.Context) string {
	role, _ := ctx.Get(contextRoleKey).(string)
	return role
}
