package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/workspace"
)

type workspaceApi struct {
	svc      *workspace.Service
	validate *validator.Validate
}

func registerWorkspaceAPI(g *echo.Group, jwt, auth echo.MiddlewareFunc, deps *Deps) {
	api := workspaceApi{
		svc:      deps.WorkspaceSvc,
		validate: deps.Validate,
	}

	wg := g.Group("/workspaces", jwt, auth)
	wg.GET("", api.query)
	wg.POST("", api.create)

	member := workspaceRoleMiddleware(api.svc, workspace.RoleUser)
	admin := workspaceRoleMiddleware(api.svc, workspace.RoleAdmin)

	// detail endpoints
	dg := wg.Group("/:id")
	dg.GET("", api.retrieve, member)
	dg.PUT("", api.update, admin)
	dg.DELETE("", api.destroy, member)

	dg.GET("/members", api.queryMembers, member)
	dg.PUT("/members/:userId", api.updateMember, admin)
	dg.DELETE("/members/:userId", api.removeMember, member)
}

// Handlers

func (api *workspaceApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	summaries, err := api.svc.ListForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing workspaces")
	}
	if summaries == nil {
		summaries = []workspace.Summary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *workspaceApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data workspace.NewWorkspace
	if err = ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	summary, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating workspace")
	}
	return ctx.JSON(http.StatusCreated, summary)
}

func (api *workspaceApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.Summary(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting workspace")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *workspaceApi) update(ctx echo.Context) error {
	var data workspace.UpdateWorkspace
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ws, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating workspace")
	}
	return ctx.JSON(http.StatusOK, ws)
}

func (api *workspaceApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting workspace")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Workspace deleted."})
}

func (api *workspaceApi) queryMembers(ctx echo.Context) error {
	members, err := api.svc.Members(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing members")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *workspaceApi) updateMember(ctx echo.Context) error {
	var data workspace.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.UpdateMemberRole(ctx.Request().Context(), ctx.Param("id"), ctx.Param("userId"), data)
	if err != nil {
		return errors.Wrap(err, "updating member role")
	}
	return ctx.JSON(http.StatusOK, m)
}

// removeMember is open to admins, and to members leaving the workspace.
func (api *workspaceApi) removeMember(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	userID := ctx.Param("userId")
	if userID != usr.ID && !workspace.HasAccess(getContextRole(ctx), workspace.RoleAdmin) {
		return errHttpForbidden
	}

	if err = api.svc.RemoveMember(ctx.Request().Context(), ctx.Param("id"), userID); err != nil {
		return errors.Wrap(err, "removing member")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Member removed."})
}
