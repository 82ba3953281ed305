package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/user"
)

type enrollApi struct {
	deps ServerDeps
}

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := enrollApi{deps: deps}
	enrol := featureMiddleware(deps.UserSvc, user.FeatEnrollStudents)
	assign := featureMiddleware(deps.UserSvc, user.FeatAssignSection)

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create, enrol)
	eg.GET("/:id", api.retrieve)
	eg.POST("/:id/withdraw", api.withdraw, enrol)
	eg.POST("/assign-section", api.assignSection, assign)
	eg.POST("/unassign-section", api.unassignSection, assign)
}

func (api *enrollApi) create(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sy, err := api.deps.SchoolSvc.GetByID(ctx.Request().Context(), data.SchoolYearID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school year by ID")
	}

	enr, err := api.deps.EnrollSvc.Enroll(ctx.Request().Context(), data.StudentID, sy, data.Date)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollApi) query(ctx echo.Context) error {
	filter := enroll.QueryFilter{
		SchoolYearID: ctx.QueryParam("school_year_id"),
		SectionID:    ctx.QueryParam("section_id"),
		ActiveOnly:   ctx.QueryParam("active") == "true",
	}

	// non-admins only see enrollments in the sections they advise
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.AdviserID = ctxUsr.ID
	}

	enrs, err := api.deps.EnrollSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollApi) retrieve(ctx echo.Context) error {
	enr, err := api.deps.EnrollSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == enroll.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding enrollment by ID")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollApi) withdraw(ctx echo.Context) error {
	enr, err := api.deps.EnrollSvc.Withdraw(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == enroll.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "withdrawing enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollApi) assignSection(ctx echo.Context) error {
	var data AssignSectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignSectionRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sec, err := api.deps.SchoolSvc.GetSection(ctx.Request().Context(), data.SectionID)
	if err != nil {
		if errors.Cause(err) == school.ErrSectionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding section by ID")
	}

	if err = api.deps.EnrollSvc.AssignSection(ctx.Request().Context(), data.EnrollmentIDs, sec); err != nil {
		return errors.Wrap(err, "assigning section")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollApi) unassignSection(ctx echo.Context) error {
	var data UnassignSectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UnassignSectionRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.EnrollSvc.UnassignSection(ctx.Request().Context(), data.EnrollmentIDs); err != nil {
		return errors.Wrap(err, "unassigning section")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	EnrollRequest struct {
		StudentID    string    `json:"student_id" validate:"required"`
		SchoolYearID string    `json:"school_year_id" validate:"required"`
		Date         time.Time `json:"date"`
	}

	AssignSectionRequest struct {
		EnrollmentIDs []string `json:"enrollment_ids" validate:"required,min=1"`
		SectionID     string   `json:"section_id" validate:"required"`
	}

	UnassignSectionRequest struct {
		EnrollmentIDs []string `json:"enrollment_ids" validate:"required,min=1"`
	}
)

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(er)
}

func (ar *AssignSectionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

func (ur *UnassignSectionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}
