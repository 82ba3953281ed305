package attendance

import (
	"context"
	"time"

	"github.com/talaan-ph/talaan/core"
)

// Status of one half-day session mark.
type Status string

const (
	StatusPresent Status = "P"
	StatusAbsent  Status = "A"
	StatusLate    Status = "L"
	StatusExcused Status = "E"
)

// CountsPresent reports whether the status counts toward attendance.
// Late and Excused learners were in school for rate purposes.
func (s Status) CountsPresent() bool {
	return s == StatusPresent || s == StatusLate || s == StatusExcused
}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Session is one of the two daily half-day slots.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

func (s Session) Valid() bool { return s == SessionAM || s == SessionPM }

// SessionRecord is the atomic unit of attendance truth: one mark per
// (enrollment, date, session). A day is always two records, independently
// editable.
type SessionRecord struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	Date         time.Time `json:"date"` // midnight UTC
	Session      Session   `json:"session"`
	Status       Status    `json:"status"`
	Remarks      string    `json:"remarks"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Non-school day kinds.
const (
	KindHoliday    = "HOL"
	KindSuspension = "SUS"
)

// NonSchoolDay excludes a date from school-day counts regardless of weekday.
// Unique per (school year, date).
type NonSchoolDay struct {
	ID           string    `json:"id"`
	SchoolYearID string    `json:"school_year_id"`
	Date         time.Time `json:"date"` // midnight UTC
	Kind         string    `json:"kind"` // HOL | SUS
	Title        string    `json:"title"`
	Notes        string    `json:"notes"`
}

// Repository persists session records and non-school days.
type Repository interface {
	// QueryRecords returns all session records for the given enrollments with
	// dates in [from, to] inclusive.
	QueryRecords(ctx context.Context, enrollmentIDs []string, from, to time.Time, exec ...core.DBExecutor) ([]SessionRecord, error)
	// UpsertRecord creates the (enrollment, date, session) record or overwrites
	// its status and remarks. Returns the stored record and whether a row
	// already existed with a different status.
	UpsertRecord(ctx context.Context, rec SessionRecord, exec ...core.DBExecutor) (stored SessionRecord, changed bool, err error)

	QueryNonSchoolDays(ctx context.Context, schoolYearID string, from, to time.Time, exec ...core.DBExecutor) ([]NonSchoolDay, error)
	// UpsertNonSchoolDay creates or updates the (school year, date) entry.
	// created reports whether a new row was inserted.
	UpsertNonSchoolDay(ctx context.Context, nsd NonSchoolDay, exec ...core.DBExecutor) (stored NonSchoolDay, created bool, err error)
	DeleteNonSchoolDay(ctx context.Context, schoolYearID string, date time.Time, exec ...core.DBExecutor) error
}
