package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/user"
)

type schoolApi struct {
	deps ServerDeps
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{deps: deps}

	sg := g.Group("/schoolyears", jwt)
	sg.GET("", api.query)
	sg.GET("/active", api.active)
	sg.POST("", api.create, featureMiddleware(deps.UserSvc, user.FeatManageSchoolYears))
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, featureMiddleware(deps.UserSvc, user.FeatManageSchoolYears))

	sg.GET("/:id/sections", api.querySections)
	sg.POST("/:id/sections", api.createSection, featureMiddleware(deps.UserSvc, user.FeatManageSchoolYears))
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchoolYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchoolYear")
	}
	if err := data.Validate(api.deps.Validate, api.deps.SchoolSvc); err != nil {
		return err
	}

	sy, err := api.deps.SchoolSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school year")
	}
	return ctx.JSON(http.StatusCreated, sy)
}

func (api *schoolApi) query(ctx echo.Context) error {
	sys, err := api.deps.SchoolSvc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying school years")
	}
	if sys == nil {
		sys = []school.SchoolYear{}
	}
	return ctx.JSON(http.StatusOK, sys)
}

func (api *schoolApi) active(ctx echo.Context) error {
	sy, err := api.deps.SchoolSvc.Active(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting active school year")
	}
	return ctx.JSON(http.StatusOK, sy)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sy, err := api.deps.SchoolSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school year by ID")
	}
	return ctx.JSON(http.StatusOK, sy)
}

func (api *schoolApi) update(ctx echo.Context) error {
	orig, err := api.deps.SchoolSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school year by ID")
	}

	var data school.UpdateSchoolYear
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchoolYear")
	}
	if err = data.Validate(api.deps.Validate, api.deps.SchoolSvc, orig); err != nil {
		return err
	}

	sy, err := api.deps.SchoolSvc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school year")
	}
	return ctx.JSON(http.StatusOK, sy)
}

// querySections lists the school year's sections; non-admins only see the
// sections they advise.
func (api *schoolApi) querySections(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	adviserID := ""
	if !ctxUsr.IsAdmin() {
		adviserID = ctxUsr.ID
	}

	secs, err := api.deps.SchoolSvc.SectionsFor(ctx.Request().Context(), ctx.Param("id"), adviserID)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if secs == nil {
		secs = []school.Section{}
	}
	return ctx.JSON(http.StatusOK, secs)
}

func (api *schoolApi) createSection(ctx echo.Context) error {
	var data school.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sec, err := api.deps.SchoolSvc.CreateSection(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating section")
	}
	return ctx.JSON(http.StatusCreated, sec)
}
