package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
)

type notificationApi struct {
	svc       *notification.Service
	inviteSvc *invite.Service
	validate  *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt, auth echo.MiddlewareFunc, deps *Deps) {
	api := notificationApi{
		svc:       deps.NotificationSvc,
		inviteSvc: deps.InviteSvc,
		validate:  deps.Validate,
	}

	ng := g.Group("/notifications", jwt, auth)
	ng.GET("", api.query)
	ng.POST("", api.markAllRead)

	// detail endpoints
	ng.GET("/:id", api.get)
	ng.POST("/:id", api.act)
	ng.PUT("/:id", api.markRead)
	ng.DELETE("/:id", api.destroy)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var filter notification.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errInvalidBody
	}

	inbox, err := api.svc.List(ctx.Request().Context(), usr.ID, filter)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	return ctx.JSON(http.StatusOK, inbox)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	count, err := api.svc.MarkAllRead(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return ctx.JSON(http.StatusOK, MarkAllReadResponse{
		Message: fmt.Sprintf("%d notification(s) marked as read.", count),
		Count:   count,
	})
}

// act accepts or declines the invite behind a WORKSPACE_INVITE notification.
func (api *notificationApi) act(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data invite.NotificationAction
	if err = ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.inviteSvc.Respond(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "responding to notification")
	}

	resp := ActionResponse{
		Action:        res.Action,
		WorkspaceID:   res.WorkspaceID,
		AlreadyMember: res.AlreadyMember,
		Notification:  res.Notification,
	}
	switch {
	case res.Action == invite.ActionDecline:
		resp.Message = "Invitation declined."
	case res.AlreadyMember:
		resp.Message = "You are already a member of this workspace."
	default:
		resp.Message = "Invitation accepted. You joined the workspace."
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *notificationApi) get(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting notification")
	}
	return ctx.JSON(http.StatusOK, NotificationResponse{Notification: n})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkRead(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, NotificationResponse{Notification: n})
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Notification deleted."})
}

type (
	MarkAllReadResponse struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}

	ActionResponse struct {
		Message       string                    `json:"message"`
		Action        string                    `json:"action"`
		WorkspaceID   string                    `json:"workspaceId"`
		AlreadyMember bool                      `json:"alreadyMember"`
		Notification  notification.Notification `json:"notification"`
	}

	NotificationResponse struct {
		Notification notification.Notification `json:"notification"`
	}
)
