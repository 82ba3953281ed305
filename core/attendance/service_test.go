package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
	"github.com/talaan-ph/talaan/services/cache"
	"github.com/talaan-ph/talaan/storage/database/dummy"
	"github.com/talaan-ph/talaan/tests"
)

type fixture struct {
	db        *dummydb.DB
	svc       *attendance.Service
	cache     core.Cache
	schoolSvc *school.Service
	enrollSvc *enroll.Service
	notifRepo notification.Repository
	sy        school.SchoolYear
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, _ := dummydb.Open()

	cache := cachesvc.NewMemoryCache(5 * time.Minute)
	conf := &core.Config{SummaryCacheTTL: 5 * time.Minute}

	schoolRepo := dummydb.NewSchoolRepository(db)
	enrollRepo := dummydb.NewEnrollRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	notifRepo := dummydb.NewNotificationRepository(db)

	schoolSvc := school.NewService(db, schoolRepo)
	enrollSvc := enroll.NewService(db, enrollRepo)
	notifSvc := notification.NewService(notifRepo)
	svc := attendance.NewService(db, attRepo, enrollRepo, notifSvc, cache, testutil.NewLogger(t), conf)

	sy, err := schoolSvc.Create(context.Background(), school.NewSchoolYear{
		Name:      "2025 Summer Term",
		StartDate: attendance.NewDate(2025, time.June, 1),
		EndDate:   attendance.NewDate(2025, time.June, 30),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("creating school year: %v", err)
	}

	return &fixture{
		db:        db,
		svc:       svc,
		cache:     cache,
		schoolSvc: schoolSvc,
		enrollSvc: enrollSvc,
		notifRepo: notifRepo,
		sy:        sy,
	}
}

func (f *fixture) enrolLearner(t *testing.T, lastName, sex string) enroll.Enrollment {
	t.Helper()
	ctx := context.Background()

	stRepo := dummydb.NewStudentRepository(f.db)
	st, err := student.NewService(stRepo).Create(ctx, student.NewStudent{
		LastName:  lastName,
		FirstName: "Test",
		Sex:       sex,
	})
	if err != nil {
		t.Fatalf("creating student: %v", err)
	}
	enr, err := f.enrollSvc.Enroll(ctx, st.ID, f.sy, f.sy.StartDate)
	if err != nil {
		t.Fatalf("enrolling student: %v", err)
	}
	return enr
}

func (f *fixture) enrollments(t *testing.T) []enroll.Enrollment {
	t.Helper()
	enrs, err := f.enrollSvc.Query(context.Background(), enroll.QueryFilter{SchoolYearID: f.sy.ID})
	if err != nil {
		t.Fatalf("querying enrollments: %v", err)
	}
	return enrs
}

func TestSaveDayInvalidatesCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.enrolLearner(t, "Reyes", student.SexMale)
	enrs := f.enrollments(t)
	day := attendance.NewDate(2025, time.June, 2) // a Monday

	// prime the cache
	before, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if before.Combined.TotalDailyAttendance != 0 {
		t.Fatalf("expected empty register, got %v", before.Combined.TotalDailyAttendance)
	}

	err = f.svc.SaveDay(ctx, f.sy, day, []attendance.DayEdit{{
		EnrollmentID: enrs[0].ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusPresent},
		PM:           attendance.SessionEdit{Status: attendance.StatusPresent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}

	key := core.CacheKey{SchoolYearID: f.sy.ID, Year: 2025, Month: time.June, Scope: core.ScopeAll}
	if _, err = f.cache.Get(key); err != core.ErrCacheMiss {
		t.Errorf("shared scope not evicted after save: %v", err)
	}

	after, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if after.Combined.TotalDailyAttendance != 1 {
		t.Errorf("TotalDailyAttendance = %v, want 1 after save", after.Combined.TotalDailyAttendance)
	}
}

func TestSaveDayEvictsActorScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.enrolLearner(t, "Santos", student.SexFemale)
	enrs := f.enrollments(t)

	actorKey := core.CacheKey{SchoolYearID: f.sy.ID, Year: 2025, Month: time.June, Scope: core.ScopeUser("actor-1")}
	_ = f.cache.Set(actorKey, "stale", time.Minute)

	err := f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 2), []attendance.DayEdit{{
		EnrollmentID: enrs[0].ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusAbsent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}
	if _, err = f.cache.Get(actorKey); err != core.ErrCacheMiss {
		t.Errorf("actor scope not evicted after save: %v", err)
	}
}

func TestSaveDayEvictsSectionScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	enr := f.enrolLearner(t, "Garcia", student.SexFemale)

	sec, err := f.schoolSvc.CreateSection(ctx, f.sy.ID, school.NewSection{Name: "Rizal", AdviserID: "adviser-1"})
	if err != nil {
		t.Fatalf("creating section: %v", err)
	}
	if err = f.enrollSvc.AssignSection(ctx, []string{enr.ID}, sec); err != nil {
		t.Fatalf("assigning section: %v", err)
	}
	enrs := f.enrollments(t)

	// prime the section-scoped register
	scope := core.ScopeSection(sec.ID)
	before, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, scope, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if before.Combined.TotalDailyAttendance != 0 {
		t.Fatalf("expected empty register, got %v", before.Combined.TotalDailyAttendance)
	}

	err = f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 2), []attendance.DayEdit{{
		EnrollmentID: enr.ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusPresent},
		PM:           attendance.SessionEdit{Status: attendance.StatusPresent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}

	key := core.CacheKey{SchoolYearID: f.sy.ID, Year: 2025, Month: time.June, Scope: scope}
	if _, err = f.cache.Get(key); err != core.ErrCacheMiss {
		t.Errorf("section scope not evicted after save: %v", err)
	}

	after, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, scope, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if after.Combined.TotalDailyAttendance != 1 {
		t.Errorf("TotalDailyAttendance = %v, want 1 after editing the section's learner", after.Combined.TotalDailyAttendance)
	}
}

// Correcting a mark overwrites it in place; only the final state counts.
func TestSaveDayLastWriteWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.enrolLearner(t, "Cruz", student.SexMale)
	enrs := f.enrollments(t)
	day := attendance.NewDate(2025, time.June, 2)

	mark := func(status attendance.Status) {
		t.Helper()
		err := f.svc.SaveDay(ctx, f.sy, day, []attendance.DayEdit{{
			EnrollmentID: enrs[0].ID,
			AM:           attendance.SessionEdit{Status: status},
		}}, "actor-1")
		if err != nil {
			t.Fatalf("SaveDay() error = %v", err)
		}
	}
	mark(attendance.StatusAbsent)
	mark(attendance.StatusPresent)

	sum, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if sum.Combined.TotalDailyAttendance != 0.5 {
		t.Errorf("TotalDailyAttendance = %v, want 0.5; correction must not double-count", sum.Combined.TotalDailyAttendance)
	}
	if sum.Combined.Absent5 != 0 {
		t.Errorf("Absent5 = %d, want 0 after correction", sum.Combined.Absent5)
	}
}

// Declaring a holiday on a recorded date shrinks the school-day count but
// keeps the marks visible in the day-mark matrix.
func TestMarkNonSchoolDayKeepsRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.enrolLearner(t, "Bautista", student.SexFemale)
	enrs := f.enrollments(t)
	day := attendance.NewDate(2025, time.June, 4) // a Wednesday

	err := f.svc.SaveDay(ctx, f.sy, day, []attendance.DayEdit{{
		EnrollmentID: enrs[0].ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusPresent},
		PM:           attendance.SessionEdit{Status: attendance.StatusPresent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}

	before, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}

	if _, err = f.svc.MarkNonSchoolDay(ctx, f.sy, attendance.NonSchoolDay{
		Date:  day,
		Kind:  attendance.KindHoliday,
		Title: "Local fiesta",
	}); err != nil {
		t.Fatalf("MarkNonSchoolDay() error = %v", err)
	}

	after, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, enrs)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if after.SchoolDays != before.SchoolDays-1 {
		t.Errorf("SchoolDays = %d, want %d after declaring holiday", after.SchoolDays, before.SchoolDays-1)
	}

	rep, err := f.svc.MonthlyReport(ctx, f.sy, 2025, time.June, enrs)
	if err != nil {
		t.Fatalf("MonthlyReport() error = %v", err)
	}
	var found bool
	for _, row := range rep.Rows {
		for _, mark := range row.Marks {
			if mark.Date.Equal(day) {
				found = mark.AM == string(attendance.StatusPresent) && mark.NonSchool
			}
		}
	}
	if !found {
		t.Error("marks on the declared holiday must stay visible in the report")
	}
}

func TestMonthlySummaryRejectsForeignMonth(t *testing.T) {
	f := setup(t)
	_, err := f.svc.MonthlySummary(context.Background(), f.sy, 2025, time.December, core.ScopeAll, nil)
	if err == nil {
		t.Fatal("expected a validation error for a month outside the school year")
	}
}

func TestSaveDayNotifiesAdviser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	enr := f.enrolLearner(t, "Dizon", student.SexMale)

	sec, err := f.schoolSvc.CreateSection(ctx, f.sy.ID, school.NewSection{Name: "Mabini", AdviserID: "adviser-1"})
	if err != nil {
		t.Fatalf("creating section: %v", err)
	}
	if err = f.enrollSvc.AssignSection(ctx, []string{enr.ID}, sec); err != nil {
		t.Fatalf("assigning section: %v", err)
	}

	err = f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 2), []attendance.DayEdit{{
		EnrollmentID: enr.ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusAbsent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}

	nots, err := f.notifRepo.QueryNotifications(ctx, "adviser-1", true)
	if err != nil {
		t.Fatalf("querying notifications: %v", err)
	}
	if len(nots) != 1 {
		t.Fatalf("adviser notifications = %d, want 1", len(nots))
	}

	// re-saving the same status must not notify again
	err = f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 2), []attendance.DayEdit{{
		EnrollmentID: enr.ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusAbsent},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}
	nots, _ = f.notifRepo.QueryNotifications(ctx, "adviser-1", true)
	if len(nots) != 1 {
		t.Errorf("adviser notifications = %d, want still 1 after unchanged save", len(nots))
	}

	// late and excused marks notify too
	err = f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 2), []attendance.DayEdit{{
		EnrollmentID: enr.ID,
		PM:           attendance.SessionEdit{Status: attendance.StatusLate},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}
	err = f.svc.SaveDay(ctx, f.sy, attendance.NewDate(2025, time.June, 3), []attendance.DayEdit{{
		EnrollmentID: enr.ID,
		AM:           attendance.SessionEdit{Status: attendance.StatusExcused},
	}}, "actor-1")
	if err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}
	nots, _ = f.notifRepo.QueryNotifications(ctx, "adviser-1", true)
	if len(nots) != 3 {
		t.Errorf("adviser notifications = %d, want 3 after late and excused marks", len(nots))
	}
}
