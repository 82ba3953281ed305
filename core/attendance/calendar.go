package attendance

import "time"

// Date normalizes t to midnight UTC so civil dates compare and hash cleanly.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a midnight UTC civil date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year int, month time.Month) (first, last time.Time) {
	first = NewDate(year, month, 1)
	last = first.AddDate(0, 1, -1)
	return first, last
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// minDate returns the earlier of a and b.
func minDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func maxDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// Calendar resolves school days for one school year from its declared
// non-school dates. Values are immutable once built.
type Calendar struct {
	excluded map[time.Time]NonSchoolDay
}

func NewCalendar(nonSchoolDays []NonSchoolDay) *Calendar {
	excluded := make(map[time.Time]NonSchoolDay, len(nonSchoolDays))
	for _, nsd := range nonSchoolDays {
		excluded[Date(nsd.Date)] = nsd
	}
	return &Calendar{excluded: excluded}
}

// SchoolDays returns the ascending weekdays in [from, to] that are not
// declared non-school days. It does not clip to the school year; callers
// clip the range first. An empty or inverted range yields an empty slice.
func (c *Calendar) SchoolDays(from, to time.Time) []time.Time {
	from, to = Date(from), Date(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !isWeekday(d) {
			continue
		}
		if _, excluded := c.excluded[d]; excluded {
			continue
		}
		days = append(days, d)
	}
	return days
}

// IsSchoolDay reports whether d is a weekday not declared a non-school day.
func (c *Calendar) IsSchoolDay(d time.Time) bool {
	d = Date(d)
	if !isWeekday(d) {
		return false
	}
	_, excluded := c.excluded[d]
	return !excluded
}

// NonSchoolDay returns the declared entry for d, if any.
func (c *Calendar) NonSchoolDay(d time.Time) (NonSchoolDay, bool) {
	nsd, ok := c.excluded[Date(d)]
	return nsd, ok
}

// FirstFriday walks forward day by day to the first Friday on or after start.
// It anchors the enrollment cutoff for the whole school year.
func FirstFriday(start time.Time) time.Time {
	d := Date(start)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
