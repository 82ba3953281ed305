package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core/student"
	"github.com/talaan-ph/talaan/core/user"
)

type studentApi struct {
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{deps: deps}
	manage := featureMiddleware(deps.UserSvc, user.FeatManageStudents)

	sg := g.Group("/students", jwt)
	sg.GET("", api.query)
	sg.GET("/birthdays", api.birthdays)
	sg.POST("", api.create, manage)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, manage)
	sg.POST("/:id/archive", api.archive, manage)
	sg.POST("/:id/restore", api.restore, manage)
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.deps.StudentSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// birthdays lists students with a birthday in the next `days` days (default 7).
func (api *studentApi) birthdays(ctx echo.Context) error {
	window := 7
	if v := ctx.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		window = n
	}

	students, err := api.deps.StudentSvc.Query(ctx.Request().Context(), nil)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	bdays := student.UpcomingBirthdays(students, time.Now().UTC().Truncate(24*time.Hour), window)
	if bdays == nil {
		bdays = []student.Birthday{}
	}
	return ctx.JSON(http.StatusOK, bdays)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	orig, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(api.deps.Validate, orig); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) archive(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.Archive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "archiving student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) restore(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.Restore(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "restoring student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	force := ctx.QueryParam("force") == "true"
	if err := api.deps.StudentSvc.Delete(ctx.Request().Context(), ctx.Param("id"), force); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
