package student

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/talaan-ph/talaan/core"
)

// Sex codes used by the SF2 gender buckets.
const (
	SexMale   = "M"
	SexFemale = "F"
)

type Student struct {
	ID            string    `json:"id"`
	LRN           string    `json:"lrn"` // Learner Reference Number (optional)
	LastName      string    `json:"last_name"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name"`
	Sex           string    `json:"sex"` // M | F
	Birthdate     time.Time `json:"birthdate"`
	IsActive      bool      `json:"is_active"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// DisplayName renders "Last, First" the way rosters and reports list learners.
func (s Student) DisplayName() string {
	return fmt.Sprintf("%s, %s", s.LastName, s.FirstName)
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	LRN           string    `json:"lrn"`
	LastName      string    `json:"last_name" validate:"required"`
	FirstName     string    `json:"first_name" validate:"required"`
	MiddleName    string    `json:"middle_name"`
	Sex           string    `json:"sex" validate:"required,oneof=M F"`
	Birthdate     time.Time `json:"birthdate"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.LRN = core.CleanString(ns.LRN)
	ns.LastName = core.CleanString(ns.LastName)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = NormalizePhone(ns.GuardianPhone)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be modified on an existing Student.
type UpdateStudent struct {
	LRN           string    `json:"lrn"`
	LastName      string    `json:"last_name"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name"`
	Sex           string    `json:"sex" validate:"omitempty,oneof=M F"`
	Birthdate     time.Time `json:"birthdate"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate, orig Student) error {
	if v := core.CleanString(us.LastName); v != "" {
		us.LastName = v
	} else {
		us.LastName = orig.LastName
	}
	if v := core.CleanString(us.FirstName); v != "" {
		us.FirstName = v
	} else {
		us.FirstName = orig.FirstName
	}
	if us.Sex == "" {
		us.Sex = orig.Sex
	}
	us.LRN = core.CleanString(us.LRN)
	us.MiddleName = core.CleanString(us.MiddleName)
	us.GuardianName = core.CleanString(us.GuardianName)
	us.GuardianPhone = NormalizePhone(us.GuardianPhone)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search          string `query:"search"`
	IncludeArchived bool   `query:"archived"`
}
