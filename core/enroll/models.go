package enroll

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
)

// Enrollment ties a student to a school year, optionally placed in a section.
// A student has at most one enrollment per school year.
type Enrollment struct {
	ID           string      `json:"id"`
	StudentID    string      `json:"student_id"`
	SchoolYearID string      `json:"school_year_id"`
	SectionID    null.String `json:"section_id"`
	DateEnrolled time.Time   `json:"date_enrolled"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC

	// populated on query joins
	Student *student.Student `json:"student,omitempty"`
	Section *school.Section  `json:"section,omitempty"`
}

// QueryFilter narrows enrollment queries. SchoolYearID is required; SectionID
// and AdviserID are optional and restrict to a section or an adviser's sections.
type QueryFilter struct {
	SchoolYearID string
	SectionID    string
	AdviserID    string
	ActiveOnly   bool
}
