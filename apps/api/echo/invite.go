package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

var (
	errMissingLinkID = core.NewValidationError(
		errors.New("linkId is required"),
		core.FieldError{Field: "linkId", Error: "this field is required"},
	)
	errMissingInviteID = core.NewValidationError(
		errors.New("inviteId is required"),
		core.FieldError{Field: "inviteId", Error: "this field is required"},
	)
)

type inviteApi struct {
	svc      *invite.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerInviteAPI(g *echo.Group, jwt, auth echo.MiddlewareFunc, deps *Deps) {
	api := inviteApi{
		svc:      deps.InviteSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	// admin endpoints
	wg := g.Group("/workspaces/:id/invites", jwt, auth, workspaceRoleMiddleware(deps.WorkspaceSvc, workspace.RoleAdmin))
	wg.GET("/links", api.queryLinks)
	wg.POST("/links", api.createLink)
	wg.DELETE("/links", api.destroyLink)
	wg.GET("", api.queryInvites)
	wg.POST("", api.createInvite)
	wg.DELETE("", api.destroyInvite)

	// public invite landing
	pg := g.Group("/invites", jwt)
	pg.GET("/:code", api.resolveLink)
	pg.POST("/:code", api.acceptLink, auth)
}

// Handlers

func (api *inviteApi) linkResponse(l invite.LinkStatus) LinkResponse {
	return LinkResponse{Link: l, InviteURL: api.svc.InviteURL(l.Link)}
}

func (api *inviteApi) queryLinks(ctx echo.Context) error {
	links, err := api.svc.ListLinks(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing invite links")
	}
	resp := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, api.linkResponse(l))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *inviteApi) createLink(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data invite.NewLink
	if err = ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err = data.Validate(); err != nil {
		return err
	}

	l, err := api.svc.CreateLink(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating invite link")
	}
	return ctx.JSON(http.StatusCreated, api.linkResponse(invite.LinkStatus{Link: l}))
}

func (api *inviteApi) destroyLink(ctx echo.Context) error {
	id := ctx.QueryParam("linkId")
	if id == "" {
		return errMissingLinkID
	}
	if err := api.svc.DeleteLink(ctx.Request().Context(), ctx.Param("id"), id); err != nil {
		return errors.Wrap(err, "deleting invite link")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Invite link deleted."})
}

func (api *inviteApi) queryInvites(ctx echo.Context) error {
	invites, err := api.svc.ListInvites(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing invites")
	}
	return ctx.JSON(http.StatusOK, invites)
}

func (api *inviteApi) createInvite(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data invite.NewInvite
	if err = ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.CreateInvite(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating invite")
	}

	msg := "Invitation sent. They will be able to join once they sign up with this email."
	if res.UserExists {
		msg = "Invitation sent. The user has been notified."
	}
	return ctx.JSON(http.StatusCreated, InviteResponse{Invite: res.Invite, UserExists: res.UserExists, Message: msg})
}

func (api *inviteApi) destroyInvite(ctx echo.Context) error {
	id := ctx.QueryParam("inviteId")
	if id == "" {
		return errMissingInviteID
	}
	if err := api.svc.DeleteInvite(ctx.Request().Context(), ctx.Param("id"), id); err != nil {
		return errors.Wrap(err, "deleting invite")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Invite deleted."})
}

func (api *inviteApi) resolveLink(ctx echo.Context) error {
	preview, err := api.svc.ResolveLink(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "resolving invite link")
	}
	return ctx.JSON(http.StatusOK, preview)
}

func (api *inviteApi) acceptLink(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.AcceptLink(ctx.Request().Context(), usr.ID, ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "accepting invite link")
	}
	if res.AlreadyMember {
		return ctx.JSON(http.StatusBadRequest, AlreadyMemberResponse{
			Error:       workspace.ErrAlreadyMember.Error(),
			WorkspaceID: res.WorkspaceID,
		})
	}
	return ctx.JSON(http.StatusOK, JoinResponse{Message: "You joined the workspace.", WorkspaceID: res.WorkspaceID})
}

type (
	LinkResponse struct {
		Link      invite.LinkStatus `json:"link"`
		InviteURL string            `json:"inviteUrl"`
	}

	InviteResponse struct {
		Invite     invite.Invite `json:"invite"`
		UserExists bool          `json:"userExists"`
		Message    string        `json:"message"`
	}

	JoinResponse struct {
		Message     string `json:"message"`
		WorkspaceID string `json:"workspaceId"`
	}

	AlreadyMemberResponse struct {
		Error       string `json:"error"`
		WorkspaceID string `json:"workspaceId"`
	}
)
