package attendance

import (
	"math"
	"time"

	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
)

// streakThreshold is the consecutive-absence total, in day-equivalents, at
// which a learner is flagged for the month.
const streakThreshold = 5.0

// BucketSummary holds one gender bucket's monthly figures.
type BucketSummary struct {
	// EnrolFirstFriday counts active learners enrolled on or before the
	// school year's first Friday.
	EnrolFirstFriday int `json:"enrol_first_friday"`
	// LateEnrol counts learners enrolled within the month but after the
	// first Friday. It intentionally ignores the active flag; the register
	// reports every late registrant.
	LateEnrol int `json:"late_enrol"`
	// RegisteredEOM counts active learners enrolled by the end of the month,
	// clipped to the school year's end date.
	RegisteredEOM        int     `json:"registered_eom"`
	TotalDailyAttendance float64 `json:"total_daily_attendance"`
	ADA                  float64 `json:"average_daily_attendance"`
	PctEnrolEOM          float64 `json:"pct_enrolment_eom"`
	PctAttendance        float64 `json:"pct_attendance"`
	// Absent5 counts learners with a consecutive absence streak reaching
	// five day-equivalents within the month's school days.
	Absent5 int `json:"absent_5_consecutive"`
}

// Summary is the monthly SF2-style register for one school year and month.
type Summary struct {
	SchoolYearID string        `json:"school_year_id"`
	Year         int           `json:"year"`
	Month        time.Month    `json:"month"`
	SchoolDays   int           `json:"school_days"`
	FirstFriday  time.Time     `json:"first_friday"`
	Male         BucketSummary `json:"male"`
	Female       BucketSummary `json:"female"`
	Combined     BucketSummary `json:"combined"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize computes the monthly register from a consistent snapshot of
// enrollments and session records. It is a pure function of its inputs and
// never fails on data shape: empty populations and missing records degrade
// to zero-valued figures. Callers validate that the month intersects the
// school year before asking.
func Summarize(sy school.SchoolYear, year int, month time.Month, enrollments []enroll.Enrollment, cal *Calendar, facts *FactSet) Summary {
	monthStart, monthEnd := MonthRange(year, month)
	rangeEnd := minDate(monthEnd, Date(sy.EndDate))
	rangeStart := maxDate(monthStart, Date(sy.StartDate))

	schoolDays := cal.SchoolDays(rangeStart, rangeEnd)
	firstFriday := FirstFriday(sy.StartDate)

	sum := Summary{
		SchoolYearID: sy.ID,
		Year:         year,
		Month:        month,
		SchoolDays:   len(schoolDays),
		FirstFriday:  firstFriday,
	}
	sum.Male = summarizeBucket(filterBySex(enrollments, student.SexMale), schoolDays, firstFriday, monthStart, monthEnd, rangeEnd, facts)
	sum.Female = summarizeBucket(filterBySex(enrollments, student.SexFemale), schoolDays, firstFriday, monthStart, monthEnd, rangeEnd, facts)
	sum.Combined = summarizeBucket(enrollments, schoolDays, firstFriday, monthStart, monthEnd, rangeEnd, facts)
	return sum
}

func filterBySex(enrollments []enroll.Enrollment, sex string) []enroll.Enrollment {
	var out []enroll.Enrollment
	for _, enr := range enrollments {
		if enr.Student != nil && enr.Student.Sex == sex {
			out = append(out, enr)
		}
	}
	return out
}

func summarizeBucket(bucket []enroll.Enrollment, schoolDays []time.Time, firstFriday, monthStart, monthEnd, rangeEnd time.Time, facts *FactSet) BucketSummary {
	var bs BucketSummary
	for _, enr := range bucket {
		enrolled := Date(enr.DateEnrolled)
		if enr.Active && !enrolled.After(firstFriday) {
			bs.EnrolFirstFriday++
		}
		if !enrolled.Before(monthStart) && !enrolled.After(monthEnd) && enrolled.After(firstFriday) {
			bs.LateEnrol++
		}
		if enr.Active && !enrolled.After(rangeEnd) {
			bs.RegisteredEOM++
		}

		bs.TotalDailyAttendance += dailyAttendance(enr.ID, schoolDays, facts)
		if absentStreakFlag(enr.ID, schoolDays, facts) {
			bs.Absent5++
		}
	}

	if n := len(schoolDays); n > 0 {
		bs.ADA = bs.TotalDailyAttendance / float64(n)
	}
	if bs.EnrolFirstFriday > 0 {
		bs.PctEnrolEOM = float64(bs.RegisteredEOM) / float64(bs.EnrolFirstFriday) * 100
	}
	if bs.RegisteredEOM > 0 {
		bs.PctAttendance = bs.ADA / float64(bs.RegisteredEOM) * 100
	}

	bs.TotalDailyAttendance = round2(bs.TotalDailyAttendance)
	bs.ADA = round2(bs.ADA)
	bs.PctEnrolEOM = round2(bs.PctEnrolEOM)
	bs.PctAttendance = round2(bs.PctAttendance)
	return bs
}

// dailyAttendance totals the learner's day-equivalents over the school days.
// Each present session counts half a day; a missing record counts as absent.
func dailyAttendance(enrollmentID string, schoolDays []time.Time, facts *FactSet) float64 {
	var total float64
	for _, d := range schoolDays {
		if rec, ok := facts.Get(enrollmentID, d, SessionAM); ok && rec.Status.CountsPresent() {
			total += 0.5
		}
		if rec, ok := facts.Get(enrollmentID, d, SessionPM); ok && rec.Status.CountsPresent() {
			total += 0.5
		}
	}
	return total
}

// absentStreakFlag walks the school days in order accumulating a running
// absence streak. Each explicitly Absent session adds half a day, capped at
// one day per date. A day with zero recorded absence resets the streak,
// except that days with no records at all add nothing and reset nothing.
// The learner is flagged once the streak reaches the threshold.
func absentStreakFlag(enrollmentID string, schoolDays []time.Time, facts *FactSet) bool {
	var streak float64
	for _, d := range schoolDays {
		var dayAbsence float64
		recorded := false
		if rec, ok := facts.Get(enrollmentID, d, SessionAM); ok {
			recorded = true
			if rec.Status == StatusAbsent {
				dayAbsence += 0.5
			}
		}
		if rec, ok := facts.Get(enrollmentID, d, SessionPM); ok {
			recorded = true
			if rec.Status == StatusAbsent {
				dayAbsence += 0.5
			}
		}
		if dayAbsence > 1.0 {
			dayAbsence = 1.0
		}

		if !recorded {
			continue
		}
		if dayAbsence == 0 {
			streak = 0
			continue
		}
		streak += dayAbsence
		if streak >= streakThreshold {
			return true
		}
	}
	return false
}
