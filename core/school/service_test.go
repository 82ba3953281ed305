package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/storage/database/dummy"
)

func newService(t *testing.T) *school.Service {
	t.Helper()
	db, _ := dummydb.Open()
	return school.NewService(db, dummydb.NewSchoolRepository(db))
}

func TestCreateActivatingDeactivatesOthers(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, school.NewSchoolYear{
		Name:      "SY 2024-2025",
		StartDate: attendance.NewDate(2024, time.August, 26),
		EndDate:   attendance.NewDate(2025, time.April, 11),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second, err := svc.Create(ctx, school.NewSchoolYear{
		Name:      "SY 2025-2026",
		StartDate: attendance.NewDate(2025, time.June, 16),
		EndDate:   attendance.NewDate(2026, time.March, 31),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	active, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("Active() = %s, want %s", active.Name, second.Name)
	}

	first, err = svc.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if first.IsActive {
		t.Error("first school year still active after second was activated")
	}
}

func TestUpdateActivation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, school.NewSchoolYear{
		Name:      "SY 2024-2025",
		StartDate: attendance.NewDate(2024, time.August, 26),
		EndDate:   attendance.NewDate(2025, time.April, 11),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := svc.Create(ctx, school.NewSchoolYear{
		Name:      "SY 2025-2026",
		StartDate: attendance.NewDate(2025, time.June, 16),
		EndDate:   attendance.NewDate(2026, time.March, 31),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	active := true
	if _, err = svc.Update(ctx, second.ID, school.UpdateSchoolYear{
		Name:      second.Name,
		StartDate: second.StartDate,
		EndDate:   second.EndDate,
		IsActive:  &active,
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	first, err = svc.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if first.IsActive {
		t.Error("first school year still active after activation moved")
	}
}

func TestSchoolYearContains(t *testing.T) {
	sy := school.SchoolYear{
		StartDate: attendance.NewDate(2025, time.June, 1),
		EndDate:   attendance.NewDate(2026, time.March, 31),
	}
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{name: "start date", date: attendance.NewDate(2025, time.June, 1), want: true},
		{name: "end date", date: attendance.NewDate(2026, time.March, 31), want: true},
		{name: "mid year", date: attendance.NewDate(2025, time.December, 25), want: true},
		{name: "day before start", date: attendance.NewDate(2025, time.May, 31), want: false},
		{name: "day after end", date: attendance.NewDate(2026, time.April, 1), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sy.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestSectionsFor(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sy, err := svc.Create(ctx, school.NewSchoolYear{
		Name:      "SY 2025-2026",
		StartDate: attendance.NewDate(2025, time.June, 16),
		EndDate:   attendance.NewDate(2026, time.March, 31),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err = svc.CreateSection(ctx, sy.ID, school.NewSection{Name: "Rizal", AdviserID: "adv-1"}); err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}
	if _, err = svc.CreateSection(ctx, sy.ID, school.NewSection{Name: "Bonifacio", AdviserID: "adv-2"}); err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}

	all, err := svc.SectionsFor(ctx, sy.ID, "")
	if err != nil {
		t.Fatalf("SectionsFor() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("SectionsFor() = %d sections, want 2", len(all))
	}

	mine, err := svc.SectionsFor(ctx, sy.ID, "adv-2")
	if err != nil {
		t.Fatalf("SectionsFor() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Bonifacio" {
		t.Errorf("SectionsFor(adv-2) = %+v, want only Bonifacio", mine)
	}
}
