package attendance_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
)

func TestImportNonSchoolDays(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want attendance.ImportResult
	}{
		{
			name: "header row is skipped",
			csv: "date,kind,title\n" +
				"2025-06-12,HOL,Independence Day\n",
			want: attendance.ImportResult{Created: 1},
		},
		{
			name: "byte order mark is tolerated",
			csv:  "\uFEFF2025-06-12,hol,Independence Day\n",
			want: attendance.ImportResult{Created: 1},
		},
		{
			name: "kind aliases and slash dates",
			csv: "06/12/2025,holiday,Independence Day\n" +
				"2025/06/13,sus,Typhoon signal no. 3\n" +
				"2025-06-16,c\n",
			want: attendance.ImportResult{Created: 3},
		},
		{
			name: "bad rows are tallied, not fatal",
			csv: "date,kind\n" +
				"not-a-date,HOL\n" +
				"2025-06-12\n" +
				"2025-06-13,FIESTA\n" +
				"2025-07-15,HOL\n" +
				"2025-06-20,SUS,Walkout\n",
			want: attendance.ImportResult{Created: 1, Skipped: 4},
		},
		{
			name: "duplicate date counts as update",
			csv: "2025-06-12,HOL,Independence Day\n" +
				"2025-06-12,SUS,Actually a suspension\n",
			want: attendance.ImportResult{Created: 1, Updated: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			got, err := f.svc.ImportNonSchoolDays(context.Background(), f.sy, strings.NewReader(tt.csv))
			if err != nil {
				t.Fatalf("ImportNonSchoolDays() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ImportNonSchoolDays() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImportNonSchoolDaysAffectsCalendar(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	csv := "date,kind,title\n" +
		"2025-06-12,HOL,Independence Day\n" +
		"2025-06-13,SUS,Typhoon signal no. 3\n"
	res, err := f.svc.ImportNonSchoolDays(ctx, f.sy, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportNonSchoolDays() error = %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("Created = %d, want 2", res.Created)
	}

	sum, err := f.svc.MonthlySummary(ctx, f.sy, 2025, time.June, core.ScopeAll, nil)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	// June 2025 has 21 weekdays; the 12th and 13th are now excluded.
	if sum.SchoolDays != 19 {
		t.Errorf("SchoolDays = %d, want 19", sum.SchoolDays)
	}

	nsds, err := f.svc.NonSchoolDays(ctx, f.sy)
	if err != nil {
		t.Fatalf("NonSchoolDays() error = %v", err)
	}
	if len(nsds) != 2 {
		t.Errorf("NonSchoolDays() = %d entries, want 2", len(nsds))
	}
}
