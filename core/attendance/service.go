package attendance

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
)

var (
	// errors
	ErrInvalidRange  = errors.New("requested month does not intersect the school year")
	ErrOutsideYear   = errors.New("date falls outside the school year")
	ErrUnknownStatus = errors.New("unknown attendance status")
)

// SessionEdit sets one session's mark; empty status means leave untouched.
type SessionEdit struct {
	Status  Status `json:"status"`
	Remarks string `json:"remarks"`
}

// DayEdit carries one learner's AM and PM marks for a save-day batch.
type DayEdit struct {
	EnrollmentID string      `json:"enrollment_id"`
	AM           SessionEdit `json:"am"`
	PM           SessionEdit `json:"pm"`
}

type (
	ServiceInterface interface {
		MonthlySummary(ctx context.Context, sy school.SchoolYear, year int, month time.Month, scope string, enrollments []enroll.Enrollment) (Summary, error)
		MonthlyReport(ctx context.Context, sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment) (Report, error)
		DayView(ctx context.Context, sy school.SchoolYear, date time.Time, enrollments []enroll.Enrollment) (DaySummaryResult, error)
		MonthlyAbsentLate(ctx context.Context, sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment, limit int) ([]AbsentLateRank, error)

		SaveDay(ctx context.Context, sy school.SchoolYear, date time.Time, edits []DayEdit, actorID string) error
		MarkNonSchoolDay(ctx context.Context, sy school.SchoolYear, nsd NonSchoolDay) (NonSchoolDay, error)
		UnmarkNonSchoolDay(ctx context.Context, sy school.SchoolYear, date time.Time) error
		NonSchoolDays(ctx context.Context, sy school.SchoolYear) ([]NonSchoolDay, error)
		ImportNonSchoolDays(ctx context.Context, sy school.SchoolYear, r io.Reader) (ImportResult, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		enrollRepo enroll.Repository
		notifSvc   notification.ServiceInterface
		cache      core.Cache
		logger     core.Logger
		cacheTTL   time.Duration
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.DB, repo Repository, enrollRepo enroll.Repository, notifSvc notification.ServiceInterface, cache core.Cache, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		enrollRepo: enrollRepo,
		notifSvc:   notifSvc,
		cache:      cache,
		logger:     logger,
		cacheTTL:   conf.SummaryCacheTTL,
	}
}

// monthIntersects reports whether the month overlaps the school year at all.
func monthIntersects(sy school.SchoolYear, year int, month time.Month) bool {
	first, last := MonthRange(year, month)
	return !last.Before(Date(sy.StartDate)) && !first.After(Date(sy.EndDate))
}

// MonthlySummary serves the cached register for (school year, year, month,
// scope), recomputing from a fresh snapshot on a miss. Cache failures are
// logged and swallowed; the caller always gets a computed result.
func (svc *Service) MonthlySummary(ctx context.Context, sy school.SchoolYear, year int, month time.Month, scope string, enrollments []enroll.Enrollment) (Summary, error) {
	if !monthIntersects(sy, year, month) {
		return Summary{}, core.NewValidationError(ErrInvalidRange)
	}

	key := core.CacheKey{SchoolYearID: sy.ID, Year: year, Month: month, Scope: scope}
	if v, err := svc.cache.Get(key); err == nil {
		if sum, ok := v.(Summary); ok {
			return sum, nil
		}
	} else if !errors.Is(err, core.ErrCacheMiss) {
		svc.logger.Warn(fmt.Sprintf("cache get %s: %v", key, err))
	}

	cal, facts, err := svc.snapshot(ctx, sy, year, month, enrollments)
	if err != nil {
		return Summary{}, err
	}
	sum := Summarize(sy, year, month, enrollments, cal, facts)

	if err = svc.cache.Set(key, sum, svc.cacheTTL); err != nil {
		svc.logger.Warn(fmt.Sprintf("cache set %s: %v", key, err))
	}
	return sum, nil
}

// MonthlyReport builds the raw day-mark matrix for the month.
func (svc *Service) MonthlyReport(ctx context.Context, sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment) (Report, error) {
	if !monthIntersects(sy, year, month) {
		return Report{}, core.NewValidationError(ErrInvalidRange)
	}
	cal, facts, err := svc.snapshot(ctx, sy, year, month, enrollments)
	if err != nil {
		return Report{}, err
	}
	first, last := MonthRange(year, month)
	from := maxDate(first, Date(sy.StartDate))
	to := minDate(last, Date(sy.EndDate))
	return BuildReport(sy, from, to, enrollments, cal, facts), nil
}

// DayView assembles the take-attendance dashboard for one date.
func (svc *Service) DayView(ctx context.Context, sy school.SchoolYear, date time.Time, enrollments []enroll.Enrollment) (DaySummaryResult, error) {
	date = Date(date)
	if !sy.Contains(date) {
		return DaySummaryResult{}, core.NewValidationError(ErrOutsideYear)
	}
	records, err := svc.repo.QueryRecords(ctx, enrollmentIDs(enrollments), date, date)
	if err != nil {
		return DaySummaryResult{}, err
	}
	return DaySummary(date, enrollments, NewFactSet(records)), nil
}

// MonthlyAbsentLate ranks the month's most absent and late learners.
func (svc *Service) MonthlyAbsentLate(ctx context.Context, sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment, limit int) ([]AbsentLateRank, error) {
	if !monthIntersects(sy, year, month) {
		return nil, core.NewValidationError(ErrInvalidRange)
	}
	first, last := MonthRange(year, month)
	records, err := svc.repo.QueryRecords(ctx, enrollmentIDs(enrollments), first, last)
	if err != nil {
		return nil, err
	}
	return TopAbsentLate(records, enrollments, limit), nil
}

// snapshot loads the month's non-school days and session records once, so
// a computation sees a single consistent view.
func (svc *Service) snapshot(ctx context.Context, sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment) (*Calendar, *FactSet, error) {
	first, last := MonthRange(year, month)

	nsds, err := svc.repo.QueryNonSchoolDays(ctx, sy.ID, first, last)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading non-school days")
	}
	records, err := svc.repo.QueryRecords(ctx, enrollmentIDs(enrollments), first, last)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading session records")
	}
	return NewCalendar(nsds), NewFactSet(records), nil
}

func enrollmentIDs(enrollments []enroll.Enrollment) []string {
	ids := make([]string, len(enrollments))
	for i, enr := range enrollments {
		ids[i] = enr.ID
	}
	return ids
}

// SaveDay applies a batch of AM/PM marks for one date as a single
// transaction, records notifications for new or changed non-Present marks,
// then evicts the affected cache scopes. Upserts are last-writer-wins.
func (svc *Service) SaveDay(ctx context.Context, sy school.SchoolYear, date time.Time, edits []DayEdit, actorID string) error {
	date = Date(date)
	if !sy.Contains(date) {
		return core.NewValidationError(ErrOutsideYear)
	}
	for _, edit := range edits {
		for _, se := range []SessionEdit{edit.AM, edit.PM} {
			if se.Status != "" && !se.Status.Valid() {
				return core.NewValidationError(ErrUnknownStatus, core.FieldError{Field: "status", Error: fmt.Sprintf("unknown status %q", se.Status)})
			}
		}
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	adviserIDs := make(map[string]struct{})
	sectionIDs := make(map[string]struct{})
	now := time.Now().UTC()
	for _, edit := range edits {
		enr, err := svc.enrollRepo.GetEnrollment(ctx, edit.EnrollmentID, tx)
		if err != nil {
			return err
		}
		if enr.Section != nil && enr.Section.AdviserID != "" {
			adviserIDs[enr.Section.AdviserID] = struct{}{}
		}
		if enr.SectionID.Valid {
			sectionIDs[enr.SectionID.String] = struct{}{}
		}

		for _, op := range []struct {
			session Session
			edit    SessionEdit
		}{{SessionAM, edit.AM}, {SessionPM, edit.PM}} {
			se := op.edit
			if se.Status == "" {
				continue
			}
			rec := SessionRecord{
				EnrollmentID: enr.ID,
				Date:         date,
				Session:      op.session,
				Status:       se.Status,
				Remarks:      core.CleanString(se.Remarks),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			stored, changed, err := svc.repo.UpsertRecord(ctx, rec, tx)
			if err != nil {
				return errors.Wrapf(err, "saving %s mark for enrollment %s", op.session, enr.ID)
			}
			if changed && stored.Status != StatusPresent {
				if err = svc.notifyMark(ctx, enr, stored, tx); err != nil {
					return err
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	svc.invalidateMonth(sy.ID, date.Year(), date.Month(), setToSlice(adviserIDs), setToSlice(sectionIDs), actorID)
	return nil
}

func setToSlice(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

var statusWords = map[Status]string{
	StatusAbsent:  "absent",
	StatusLate:    "late",
	StatusExcused: "excused",
}

// notifyMark records an in-app notification for the section adviser when a
// learner gets a non-Present mark, inside the same transaction as the mark.
func (svc *Service) notifyMark(ctx context.Context, enr enroll.Enrollment, rec SessionRecord, exec core.DBExecutor) error {
	word, ok := statusWords[rec.Status]
	if !ok || enr.Section == nil || enr.Section.AdviserID == "" {
		return nil
	}
	name := "a learner"
	if enr.Student != nil {
		name = enr.Student.DisplayName()
	}
	msg := fmt.Sprintf("%s was marked %s (%s) on %s", name, word, rec.Session, rec.Date.Format("Jan 2, 2006"))
	url := fmt.Sprintf("/attendance/%s?date=%s", enr.SchoolYearID, rec.Date.Format("2006-01-02"))
	return svc.notifSvc.Notify(ctx, []string{enr.Section.AdviserID}, msg, url, exec)
}

// MarkNonSchoolDay declares (or re-titles) a holiday or suspension, then
// invalidates the month since school-day denominators change. Session
// records already on the date are kept.
func (svc *Service) MarkNonSchoolDay(ctx context.Context, sy school.SchoolYear, nsd NonSchoolDay) (NonSchoolDay, error) {
	nsd.Date = Date(nsd.Date)
	if !sy.Contains(nsd.Date) {
		return NonSchoolDay{}, core.NewValidationError(ErrOutsideYear)
	}
	if nsd.Kind != KindHoliday && nsd.Kind != KindSuspension {
		return NonSchoolDay{}, core.NewValidationError(nil, core.FieldError{Field: "kind", Error: fmt.Sprintf("unknown kind %q", nsd.Kind)})
	}
	nsd.SchoolYearID = sy.ID
	nsd.Title = core.CleanString(nsd.Title)
	nsd.Notes = core.CleanString(nsd.Notes)

	stored, _, err := svc.repo.UpsertNonSchoolDay(ctx, nsd)
	if err != nil {
		return NonSchoolDay{}, err
	}
	svc.invalidateMonth(sy.ID, nsd.Date.Year(), nsd.Date.Month(), nil, nil, "")
	return stored, nil
}

func (svc *Service) UnmarkNonSchoolDay(ctx context.Context, sy school.SchoolYear, date time.Time) error {
	date = Date(date)
	if err := svc.repo.DeleteNonSchoolDay(ctx, sy.ID, date); err != nil {
		return err
	}
	svc.invalidateMonth(sy.ID, date.Year(), date.Month(), nil, nil, "")
	return nil
}

func (svc *Service) NonSchoolDays(ctx context.Context, sy school.SchoolYear) ([]NonSchoolDay, error) {
	return svc.repo.QueryNonSchoolDays(ctx, sy.ID, Date(sy.StartDate), Date(sy.EndDate))
}

// invalidateMonth evicts the month's cached summaries: the shared scope,
// one per implicated adviser and section, and the acting user's own.
// Evictions are best effort; failures are logged and never surfaced.
func (svc *Service) invalidateMonth(schoolYearID string, year int, month time.Month, adviserIDs, sectionIDs []string, actorID string) {
	scopes := []string{core.ScopeAll}
	for _, id := range adviserIDs {
		scopes = append(scopes, core.ScopeUser(id))
	}
	for _, id := range sectionIDs {
		scopes = append(scopes, core.ScopeSection(id))
	}
	if actorID != "" {
		scopes = append(scopes, core.ScopeUser(actorID))
	}

	seen := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		key := core.CacheKey{SchoolYearID: schoolYearID, Year: year, Month: month, Scope: scope}
		if err := svc.cache.Delete(key); err != nil {
			svc.logger.Warn(fmt.Sprintf("cache delete %s: %v", key, err))
		}
	}
}
