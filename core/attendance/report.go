package attendance

import (
	"sort"
	"time"

	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
)

// DayMark is one learner-day cell of the register: the AM and PM marks for a
// single date, blank when no record exists. NonSchool flags dates the export
// layer greys out.
type DayMark struct {
	Date      time.Time `json:"date"`
	AM        string    `json:"am"`
	PM        string    `json:"pm"`
	NonSchool bool      `json:"non_school"`
}

// ReportRow is one learner's line: day marks in date order plus half-day
// session tallies. Present includes Late and Excused sessions; the register
// lists them inside the present column.
type ReportRow struct {
	EnrollmentID string    `json:"enrollment_id"`
	StudentName  string    `json:"student_name"`
	Sex          string    `json:"sex"`
	Marks        []DayMark `json:"marks"`
	Present      int       `json:"present"` // half-day sessions, incl. late and excused
	Absent       int       `json:"absent"`
	Late         int       `json:"late"`
	Excused      int       `json:"excused"`
}

// DayTotal carries the per-date present headcounts the register footer shows.
type DayTotal struct {
	Date     time.Time `json:"date"`
	Male     float64   `json:"male"`
	Female   float64   `json:"female"`
	Combined float64   `json:"combined"`
}

// Report is the raw day-mark matrix consumed by the export and rendering
// collaborators. Rows are grouped male first then female, each group sorted
// by learner name.
type Report struct {
	SchoolYearID string      `json:"school_year_id"`
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	Dates        []time.Time `json:"dates"`
	Rows         []ReportRow `json:"rows"`
	DayTotals    []DayTotal  `json:"day_totals"`
}

// BuildReport assembles the per-learner day-mark matrix for [from, to].
// Every weekday in the range appears as a column, non-school days included
// and flagged, so already-recorded marks on later-declared holidays stay
// visible even though they are excluded from school-day denominators.
func BuildReport(sy school.SchoolYear, from, to time.Time, enrollments []enroll.Enrollment, cal *Calendar, facts *FactSet) Report {
	from, to = Date(from), Date(to)

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			dates = append(dates, d)
		}
	}

	rep := Report{SchoolYearID: sy.ID, From: from, To: to, Dates: dates}

	ordered := make([]enroll.Enrollment, len(enrollments))
	copy(ordered, enrollments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rowName(ordered[i]) < rowName(ordered[j])
	})

	totals := make(map[time.Time]*DayTotal, len(dates))
	for _, d := range dates {
		totals[d] = &DayTotal{Date: d}
	}

	appendRows := func(sex string) {
		for _, enr := range ordered {
			if rowSex(enr) != sex {
				continue
			}
			row := buildRow(enr, dates, cal, facts)
			for i, d := range dates {
				tot := totals[d]
				mark := row.Marks[i]
				tot.Male += presentEquivalent(mark, sex == "M")
				tot.Female += presentEquivalent(mark, sex == "F")
				tot.Combined += presentEquivalent(mark, true)
			}
			rep.Rows = append(rep.Rows, row)
		}
	}
	appendRows("M")
	appendRows("F")

	for _, d := range dates {
		rep.DayTotals = append(rep.DayTotals, *totals[d])
	}
	return rep
}

func rowSex(enr enroll.Enrollment) string {
	if enr.Student == nil {
		return ""
	}
	return enr.Student.Sex
}

func rowName(enr enroll.Enrollment) string {
	if enr.Student == nil {
		return ""
	}
	return enr.Student.DisplayName()
}

func buildRow(enr enroll.Enrollment, dates []time.Time, cal *Calendar, facts *FactSet) ReportRow {
	row := ReportRow{
		EnrollmentID: enr.ID,
		StudentName:  rowName(enr),
		Sex:          rowSex(enr),
	}
	for _, d := range dates {
		mark := DayMark{Date: d, NonSchool: !cal.IsSchoolDay(d)}
		if rec, ok := facts.Get(enr.ID, d, SessionAM); ok {
			mark.AM = string(rec.Status)
			row.tally(rec.Status)
		}
		if rec, ok := facts.Get(enr.ID, d, SessionPM); ok {
			mark.PM = string(rec.Status)
			row.tally(rec.Status)
		}
		row.Marks = append(row.Marks, mark)
	}
	return row
}

func (row *ReportRow) tally(st Status) {
	switch st {
	case StatusAbsent:
		row.Absent++
		return
	case StatusLate:
		row.Late++
	case StatusExcused:
		row.Excused++
	}
	row.Present++
}

// presentEquivalent converts a day's marks to day-equivalents for the footer
// totals when counted is true.
func presentEquivalent(mark DayMark, counted bool) float64 {
	if !counted || mark.NonSchool {
		return 0
	}
	var v float64
	if Status(mark.AM).CountsPresent() {
		v += 0.5
	}
	if Status(mark.PM).CountsPresent() {
		v += 0.5
	}
	return v
}
