package attendance

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
)

var testSY = school.SchoolYear{
	ID:        "sy-2025",
	Name:      "2025 Summer Term",
	StartDate: NewDate(2025, time.June, 1),
	EndDate:   NewDate(2025, time.June, 30),
	IsActive:  true,
}

func makeEnrollment(id, sex string, dateEnrolled time.Time, active bool) enroll.Enrollment {
	return enroll.Enrollment{
		ID:           id,
		StudentID:    "st-" + id,
		SchoolYearID: testSY.ID,
		DateEnrolled: dateEnrolled,
		Active:       active,
		Student: &student.Student{
			ID:       "st-" + id,
			LastName: "Learner",
			Sex:      sex,
		},
	}
}

func makeRecords(enrollmentID string, days []time.Time, am, pm Status) []SessionRecord {
	var recs []SessionRecord
	for i, d := range days {
		if am != "" {
			recs = append(recs, SessionRecord{
				ID: fmt.Sprintf("%s-%d-am", enrollmentID, i), EnrollmentID: enrollmentID,
				Date: d, Session: SessionAM, Status: am,
			})
		}
		if pm != "" {
			recs = append(recs, SessionRecord{
				ID: fmt.Sprintf("%s-%d-pm", enrollmentID, i), EnrollmentID: enrollmentID,
				Date: d, Session: SessionPM, Status: pm,
			})
		}
	}
	return recs
}

func TestSummarizeZeroEnrollments(t *testing.T) {
	cal := NewCalendar(nil)
	sum := Summarize(testSY, 2025, time.June, nil, cal, NewFactSet(nil))

	if sum.SchoolDays != 21 { // weekdays in June 2025
		t.Errorf("SchoolDays = %d, want 21", sum.SchoolDays)
	}
	for _, bucket := range []BucketSummary{sum.Male, sum.Female, sum.Combined} {
		if bucket.ADA != 0 || bucket.PctEnrolEOM != 0 || bucket.PctAttendance != 0 {
			t.Errorf("zero-enrollment bucket has non-zero ratios: %+v", bucket)
		}
	}
}

func TestSummarizeNoRecordedFacts(t *testing.T) {
	cal := NewCalendar(nil)
	enrs := []enroll.Enrollment{makeEnrollment("e1", student.SexMale, testSY.StartDate, true)}
	sum := Summarize(testSY, 2025, time.June, enrs, cal, NewFactSet(nil))

	if sum.Combined.TotalDailyAttendance != 0 {
		t.Errorf("TotalDailyAttendance = %v, want 0", sum.Combined.TotalDailyAttendance)
	}
	if sum.Combined.Absent5 != 0 {
		t.Errorf("Absent5 = %d, want 0; missing facts are no signal", sum.Combined.Absent5)
	}
	if sum.Combined.RegisteredEOM != 1 {
		t.Errorf("RegisteredEOM = %d, want 1", sum.Combined.RegisteredEOM)
	}
}

// A learner marked absent every morning for eleven straight school days
// accumulates 5.5 day-equivalents and must be flagged.
func TestSummarizeAbsentStreak(t *testing.T) {
	holiday := NonSchoolDay{SchoolYearID: testSY.ID, Date: NewDate(2025, time.June, 11), Kind: KindHoliday}
	cal := NewCalendar([]NonSchoolDay{holiday})

	schoolDays := cal.SchoolDays(testSY.StartDate, testSY.EndDate)
	if len(schoolDays) != 20 {
		t.Fatalf("school days = %d, want 21 weekdays - 1 holiday = 20", len(schoolDays))
	}

	enr := makeEnrollment("e1", student.SexMale, testSY.StartDate, true)
	recs := makeRecords(enr.ID, schoolDays[:11], StatusAbsent, StatusPresent)

	sum := Summarize(testSY, 2025, time.June, []enroll.Enrollment{enr}, cal, NewFactSet(recs))

	if sum.SchoolDays != 20 {
		t.Errorf("SchoolDays = %d, want 20", sum.SchoolDays)
	}
	if sum.Male.Absent5 != 1 {
		t.Errorf("Male.Absent5 = %d, want 1", sum.Male.Absent5)
	}
	if sum.Combined.Absent5 != 1 {
		t.Errorf("Combined.Absent5 = %d, want 1", sum.Combined.Absent5)
	}
	if sum.Female.Absent5 != 0 {
		t.Errorf("Female.Absent5 = %d, want 0", sum.Female.Absent5)
	}
	// 11 half-days present out of 20 school days
	if sum.Male.TotalDailyAttendance != 5.5 {
		t.Errorf("Male.TotalDailyAttendance = %v, want 5.5", sum.Male.TotalDailyAttendance)
	}
	if sum.Male.ADA != 0.28 { // 5.5 / 20 rounded
		t.Errorf("Male.ADA = %v, want 0.28", sum.Male.ADA)
	}
}

// A present day in the middle of the absences resets the streak; a fully
// unrecorded day does not.
func TestSummarizeStreakResetRules(t *testing.T) {
	cal := NewCalendar(nil)
	schoolDays := cal.SchoolDays(testSY.StartDate, testSY.EndDate)
	enr := makeEnrollment("e1", student.SexFemale, testSY.StartDate, true)

	t.Run("present day resets", func(t *testing.T) {
		// 4 absent days, one fully present day, 4 more absent days: neither
		// run reaches 5.0 since the present day resets the streak.
		recs := makeRecords(enr.ID, schoolDays[:4], StatusAbsent, StatusAbsent)
		recs = append(recs, makeRecords(enr.ID, schoolDays[4:5], StatusPresent, StatusPresent)...)
		recs = append(recs, makeRecords(enr.ID, schoolDays[5:9], StatusAbsent, StatusAbsent)...)

		sum := Summarize(testSY, 2025, time.June, []enroll.Enrollment{enr}, cal, NewFactSet(recs))
		if sum.Combined.Absent5 != 0 {
			t.Errorf("Absent5 = %d, want 0 after reset", sum.Combined.Absent5)
		}
	})

	t.Run("unrecorded day does not reset", func(t *testing.T) {
		// 3 absent days, one unrecorded day, 2 more absent days: 5.0 reached.
		recs := makeRecords(enr.ID, schoolDays[:3], StatusAbsent, StatusAbsent)
		recs = append(recs, makeRecords(enr.ID, schoolDays[4:6], StatusAbsent, StatusAbsent)...)

		sum := Summarize(testSY, 2025, time.June, []enroll.Enrollment{enr}, cal, NewFactSet(recs))
		if sum.Female.Absent5 != 1 {
			t.Errorf("Female.Absent5 = %d, want 1; gaps carry the streak", sum.Female.Absent5)
		}
	})
}

func TestSummarizeEnrollmentTiming(t *testing.T) {
	cal := NewCalendar(nil)
	firstFriday := FirstFriday(testSY.StartDate) // 2025-06-06

	enrs := []enroll.Enrollment{
		makeEnrollment("early", student.SexMale, testSY.StartDate, true),
		makeEnrollment("late", student.SexFemale, firstFriday.AddDate(0, 0, 4), true),
		makeEnrollment("inactive", student.SexMale, testSY.StartDate, false),
	}
	sum := Summarize(testSY, 2025, time.June, enrs, cal, NewFactSet(nil))

	if !sum.FirstFriday.Equal(firstFriday) {
		t.Errorf("FirstFriday = %s, want %s", sum.FirstFriday, firstFriday)
	}
	if sum.Male.EnrolFirstFriday != 1 { // inactive learner excluded
		t.Errorf("Male.EnrolFirstFriday = %d, want 1", sum.Male.EnrolFirstFriday)
	}
	if sum.Female.EnrolFirstFriday != 0 {
		t.Errorf("Female.EnrolFirstFriday = %d, want 0", sum.Female.EnrolFirstFriday)
	}
	if sum.Female.LateEnrol != 1 || sum.Combined.LateEnrol != 1 {
		t.Errorf("LateEnrol F/T = %d/%d, want 1/1", sum.Female.LateEnrol, sum.Combined.LateEnrol)
	}
	if sum.Combined.RegisteredEOM != 2 { // inactive learner excluded
		t.Errorf("Combined.RegisteredEOM = %d, want 2", sum.Combined.RegisteredEOM)
	}
	if sum.Combined.PctEnrolEOM != 200 { // 2 registered / 1 first-friday
		t.Errorf("Combined.PctEnrolEOM = %v, want 200", sum.Combined.PctEnrolEOM)
	}
}

// Late registrants count even when inactive; the other timing metrics
// require the active flag.
func TestSummarizeLateEnrolIgnoresActive(t *testing.T) {
	cal := NewCalendar(nil)
	firstFriday := FirstFriday(testSY.StartDate)
	enrs := []enroll.Enrollment{
		makeEnrollment("e1", student.SexMale, firstFriday.AddDate(0, 0, 3), false),
	}
	sum := Summarize(testSY, 2025, time.June, enrs, cal, NewFactSet(nil))

	if sum.Male.LateEnrol != 1 {
		t.Errorf("Male.LateEnrol = %d, want 1 even though inactive", sum.Male.LateEnrol)
	}
	if sum.Male.RegisteredEOM != 0 {
		t.Errorf("Male.RegisteredEOM = %d, want 0", sum.Male.RegisteredEOM)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	holiday := NonSchoolDay{SchoolYearID: testSY.ID, Date: NewDate(2025, time.June, 11), Kind: KindHoliday}
	cal := NewCalendar([]NonSchoolDay{holiday})
	schoolDays := cal.SchoolDays(testSY.StartDate, testSY.EndDate)

	enrs := []enroll.Enrollment{
		makeEnrollment("e1", student.SexMale, testSY.StartDate, true),
		makeEnrollment("e2", student.SexFemale, testSY.StartDate, true),
	}
	recs := makeRecords("e1", schoolDays[:10], StatusPresent, StatusLate)
	recs = append(recs, makeRecords("e2", schoolDays[:10], StatusExcused, StatusAbsent)...)
	facts := NewFactSet(recs)

	first := Summarize(testSY, 2025, time.June, enrs, cal, facts)
	second := Summarize(testSY, 2025, time.June, enrs, cal, facts)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Summarize() not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

// Late and Excused sessions count as present for attendance rates.
func TestSummarizePresentSet(t *testing.T) {
	cal := NewCalendar(nil)
	schoolDays := cal.SchoolDays(testSY.StartDate, testSY.EndDate)
	enr := makeEnrollment("e1", student.SexMale, testSY.StartDate, true)
	recs := makeRecords(enr.ID, schoolDays[:4], StatusLate, StatusExcused)

	sum := Summarize(testSY, 2025, time.June, []enroll.Enrollment{enr}, cal, NewFactSet(recs))
	if sum.Male.TotalDailyAttendance != 4 {
		t.Errorf("TotalDailyAttendance = %v, want 4", sum.Male.TotalDailyAttendance)
	}
}
