package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core/notification"
)

type notificationApi struct {
	deps ServerDeps
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{deps: deps}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("/mark-read", api.markRead)
}

func (api *notificationApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	unreadOnly := ctx.QueryParam("unread") == "true"
	nots, err := api.deps.NotifSvc.For(ctx.Request().Context(), ctxUsr.ID, unreadOnly)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if nots == nil {
		nots = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, nots)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data MarkReadRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkReadRequest")
	}

	if err = api.deps.NotifSvc.MarkRead(ctx.Request().Context(), ctxUsr.ID, data.IDs...); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}
