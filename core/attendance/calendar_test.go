package attendance

import (
	"testing"
	"time"
)

func TestCalendarSchoolDays(t *testing.T) {
	// 2025-06-01 is a Sunday; June 2025 has 21 weekdays.
	holiday := NonSchoolDay{Date: NewDate(2025, time.June, 11), Kind: KindHoliday} // a Wednesday
	cal := NewCalendar([]NonSchoolDay{holiday})

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{name: "full month minus holiday", from: NewDate(2025, time.June, 1), to: NewDate(2025, time.June, 30), want: 20},
		{name: "single weekday", from: NewDate(2025, time.June, 2), to: NewDate(2025, time.June, 2), want: 1},
		{name: "single weekend day", from: NewDate(2025, time.June, 7), to: NewDate(2025, time.June, 7), want: 0},
		{name: "single holiday", from: NewDate(2025, time.June, 11), to: NewDate(2025, time.June, 11), want: 0},
		{name: "inverted range", from: NewDate(2025, time.June, 30), to: NewDate(2025, time.June, 1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := cal.SchoolDays(tt.from, tt.to)
			if len(days) != tt.want {
				t.Errorf("SchoolDays() returned %d days, want %d", len(days), tt.want)
			}
			for i := 1; i < len(days); i++ {
				if !days[i].After(days[i-1]) {
					t.Errorf("SchoolDays() not strictly ascending at index %d", i)
				}
			}
		})
	}
}

func TestCalendarSchoolDaysSkipsWeekends(t *testing.T) {
	cal := NewCalendar(nil)
	for _, d := range cal.SchoolDays(NewDate(2025, time.June, 1), NewDate(2025, time.June, 30)) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("SchoolDays() included weekend day %s", d.Format("2006-01-02"))
		}
	}
}

func TestFirstFriday(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{name: "start is friday", start: NewDate(2025, time.June, 6), want: NewDate(2025, time.June, 6)},
		{name: "start is sunday", start: NewDate(2025, time.June, 1), want: NewDate(2025, time.June, 6)},
		{name: "start is saturday", start: NewDate(2025, time.June, 7), want: NewDate(2025, time.June, 13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstFriday(tt.start); !got.Equal(tt.want) {
				t.Errorf("FirstFriday() = %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, time.February)
	if !first.Equal(NewDate(2024, time.February, 1)) {
		t.Errorf("MonthRange() first = %s", first.Format("2006-01-02"))
	}
	if !last.Equal(NewDate(2024, time.February, 29)) { // leap year
		t.Errorf("MonthRange() last = %s", last.Format("2006-01-02"))
	}
}
