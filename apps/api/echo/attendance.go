package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/user"
)

type attendanceApi struct {
	deps ServerDeps
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{deps: deps}
	take := featureMiddleware(deps.UserSvc, user.FeatTakeAttendance)
	view := featureMiddleware(deps.UserSvc, user.FeatViewReports)
	calendar := featureMiddleware(deps.UserSvc, user.FeatManageCalendar)

	ag := g.Group("/attendance/:sy", jwt)
	ag.GET("/day", api.dayView, take)
	ag.POST("/day", api.saveDay, take)
	ag.GET("/summary", api.summary, view)
	ag.GET("/report", api.report, view)
	ag.GET("/absent-late", api.absentLate, view)

	ag.GET("/non-school-days", api.queryNonSchoolDays)
	ag.POST("/non-school-days", api.markNonSchoolDay, calendar)
	ag.DELETE("/non-school-days", api.unmarkNonSchoolDay, calendar)
	ag.POST("/non-school-days/import", api.importNonSchoolDays, calendar)
}

func (api *attendanceApi) schoolYear(ctx echo.Context) (school.SchoolYear, error) {
	sy, err := api.deps.SchoolSvc.GetByID(ctx.Request().Context(), ctx.Param("sy"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return school.SchoolYear{}, errHttpNotFound
		}
		return school.SchoolYear{}, errors.Wrap(err, "finding school year by ID")
	}
	return sy, nil
}

// scopedEnrollments resolves which enrollments the caller may see, along with
// the cache scope that identifies that view. An explicit section narrows both;
// otherwise admins get the whole roll and advisers their own sections.
func (api *attendanceApi) scopedEnrollments(ctx echo.Context, sy school.SchoolYear) ([]enroll.Enrollment, string, error) {
	filter := enroll.QueryFilter{SchoolYearID: sy.ID, ActiveOnly: false}
	scope := core.ScopeAll

	if secID := ctx.QueryParam("section_id"); secID != "" {
		filter.SectionID = secID
		scope = core.ScopeSection(secID)
	} else {
		ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
		if err != nil {
			return nil, "", errors.Wrap(err, "getting context user")
		}
		if !ctxUsr.IsAdmin() {
			filter.AdviserID = ctxUsr.ID
			scope = core.ScopeUser(ctxUsr.ID)
		}
	}

	enrs, err := api.deps.EnrollSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return nil, "", errors.Wrap(err, "querying enrollments")
	}
	return enrs, scope, nil
}

func bindYearMonth(ctx echo.Context) (int, time.Month, error) {
	year, err := strconv.Atoi(ctx.QueryParam("year"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	m, err := strconv.Atoi(ctx.QueryParam("month"))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}
	return year, time.Month(m), nil
}

func bindDate(ctx echo.Context, param string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", ctx.QueryParam(param))
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return d, nil
}

// Handlers

func (api *attendanceApi) dayView(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	date, err := bindDate(ctx, "date")
	if err != nil {
		return err
	}
	enrs, _, err := api.scopedEnrollments(ctx, sy)
	if err != nil {
		return err
	}

	day, err := api.deps.AttendanceSvc.DayView(ctx.Request().Context(), sy, date, enrs)
	if err != nil {
		return errors.Wrap(err, "building day view")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *attendanceApi) saveDay(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}

	var data SaveDayRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveDayRequest")
	}
	if len(data.Edits) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.deps.AttendanceSvc.SaveDay(ctx.Request().Context(), sy, time.Time(data.Date), data.Edits, ctxUsr.ID); err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	year, month, err := bindYearMonth(ctx)
	if err != nil {
		return err
	}
	enrs, scope, err := api.scopedEnrollments(ctx, sy)
	if err != nil {
		return err
	}

	sum, err := api.deps.AttendanceSvc.MonthlySummary(ctx.Request().Context(), sy, year, month, scope, enrs)
	if err != nil {
		return errors.Wrap(err, "computing monthly summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) report(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	year, month, err := bindYearMonth(ctx)
	if err != nil {
		return err
	}
	enrs, _, err := api.scopedEnrollments(ctx, sy)
	if err != nil {
		return err
	}

	rep, err := api.deps.AttendanceSvc.MonthlyReport(ctx.Request().Context(), sy, year, month, enrs)
	if err != nil {
		return errors.Wrap(err, "building monthly report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) absentLate(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	year, month, err := bindYearMonth(ctx)
	if err != nil {
		return err
	}
	limit := 10
	if v := ctx.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	enrs, _, err := api.scopedEnrollments(ctx, sy)
	if err != nil {
		return err
	}

	ranks, err := api.deps.AttendanceSvc.MonthlyAbsentLate(ctx.Request().Context(), sy, year, month, enrs, limit)
	if err != nil {
		return errors.Wrap(err, "ranking absences")
	}
	if ranks == nil {
		ranks = []attendance.AbsentLateRank{}
	}
	return ctx.JSON(http.StatusOK, ranks)
}

func (api *attendanceApi) queryNonSchoolDays(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	nsds, err := api.deps.AttendanceSvc.NonSchoolDays(ctx.Request().Context(), sy)
	if err != nil {
		return errors.Wrap(err, "querying non-school days")
	}
	if nsds == nil {
		nsds = []attendance.NonSchoolDay{}
	}
	return ctx.JSON(http.StatusOK, nsds)
}

func (api *attendanceApi) markNonSchoolDay(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}

	var data attendance.NonSchoolDay
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NonSchoolDay")
	}

	nsd, err := api.deps.AttendanceSvc.MarkNonSchoolDay(ctx.Request().Context(), sy, data)
	if err != nil {
		return errors.Wrap(err, "marking non-school day")
	}
	return ctx.JSON(http.StatusCreated, nsd)
}

func (api *attendanceApi) unmarkNonSchoolDay(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}
	date, err := bindDate(ctx, "date")
	if err != nil {
		return err
	}

	if err = api.deps.AttendanceSvc.UnmarkNonSchoolDay(ctx.Request().Context(), sy, date); err != nil {
		return errors.Wrap(err, "unmarking non-school day")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// importNonSchoolDays accepts a `date,kind,title,notes` CSV upload, either as
// a multipart `file` field or as the raw request body.
func (api *attendanceApi) importNonSchoolDays(ctx echo.Context) error {
	sy, err := api.schoolYear(ctx)
	if err != nil {
		return err
	}

	body := ctx.Request().Body
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		body = f
	}

	res, err := api.deps.AttendanceSvc.ImportNonSchoolDays(ctx.Request().Context(), sy, body)
	if err != nil {
		return errors.Wrap(err, "importing non-school days")
	}
	return ctx.JSON(http.StatusOK, res)
}

type SaveDayRequest struct {
	Date  civilDate            `json:"date"`
	Edits []attendance.DayEdit `json:"edits"`
}

// civilDate unmarshals a bare `YYYY-MM-DD` JSON string.
type civilDate time.Time

func (d *civilDate) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = civilDate(t)
	return nil
}
