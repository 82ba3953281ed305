package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/talaan-ph/talaan/core"
)

// SchoolYear defines the outer date bound for all attendance aggregation.
// At most one school year is active at a time; the write path enforces it.
type SchoolYear struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // e.g. "2024-2025"
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Contains reports whether d falls within the school year's date range.
func (sy SchoolYear) Contains(d time.Time) bool {
	return !d.Before(sy.StartDate) && !d.After(sy.EndDate)
}

// Section groups enrollments under an adviser within a school year.
type Section struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SchoolYearID string `json:"school_year_id"`
	AdviserID    string `json:"adviser_id"`
}

// NewSchoolYear contains information needed to create a new SchoolYear.
type NewSchoolYear struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	IsActive  bool      `json:"is_active"`
}

func (nsy *NewSchoolYear) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nsy.Name = core.CleanString(nsy.Name)
	if err := validate.Struct(nsy); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(nsy.Name)
}

// UpdateSchoolYear defines what may be modified on an existing SchoolYear.
type UpdateSchoolYear struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  *bool     `json:"is_active"`
}

func (usy *UpdateSchoolYear) Validate(validate *validator.Validate, svc ServiceInterface, orig SchoolYear) error {
	if name := core.CleanString(usy.Name); name != "" {
		usy.Name = name
	} else {
		usy.Name = orig.Name
	}
	if usy.StartDate.IsZero() {
		usy.StartDate = orig.StartDate
	}
	if usy.EndDate.IsZero() {
		usy.EndDate = orig.EndDate
	}
	if err := validate.Struct(usy); err != nil {
		return err
	}
	if usy.EndDate.Before(usy.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date must be after start date"})
	}
	return svc.CheckNameUniqueness(usy.Name, orig)
}

// NewSection contains information needed to create a new Section.
type NewSection struct {
	Name      string `json:"name" validate:"required"`
	AdviserID string `json:"adviser_id" validate:"required"`
}

func (ns *NewSection) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// GetFilter selects a single SchoolYear.
type GetFilter struct {
	ID     string
	Active bool
}
