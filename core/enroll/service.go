package enroll

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/school"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrOutsideYear     = errors.New("enrollment date falls outside the school year")
	ErrSectionMismatch = errors.New("section belongs to a different school year")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		// FindEnrollment locates the (student, school year) enrollment if one exists.
		FindEnrollment(ctx context.Context, studentID, schoolYearID string, exec ...core.DBExecutor) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, active *bool, exec ...core.DBExecutor) (Enrollment, error)
		// SetSection moves the given enrollments into a section in one statement.
		SetSection(ctx context.Context, enrollmentIDs []string, sectionID null.String, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		// Enroll registers the student for the school year, reusing and reactivating
		// an existing enrollment when one is found.
		Enroll(ctx context.Context, studentID string, sy school.SchoolYear, date time.Time) (Enrollment, error)
		Query(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		GetByID(ctx context.Context, id string) (Enrollment, error)
		Withdraw(ctx context.Context, id string) (Enrollment, error)
		AssignSection(ctx context.Context, enrollmentIDs []string, sec school.Section) error
		UnassignSection(ctx context.Context, enrollmentIDs []string) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) Enroll(ctx context.Context, studentID string, sy school.SchoolYear, date time.Time) (Enrollment, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if !sy.Contains(date) {
		return Enrollment{}, core.NewValidationError(ErrOutsideYear)
	}

	enr, err := svc.repo.FindEnrollment(ctx, studentID, sy.ID)
	if err == nil {
		if enr.Active {
			return enr, nil
		}
		active := true
		enr.UpdatedAt = time.Now().UTC()
		return svc.repo.UpdateEnrollment(ctx, enr, &active)
	}
	if !errors.Is(err, ErrNotFound) {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	enr = Enrollment{
		StudentID:    studentID,
		SchoolYearID: sy.ID,
		DateEnrolled: date,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

// Withdraw deactivates an enrollment. Attendance facts already recorded stay
// in place; the student simply stops counting towards later registers.
func (svc *Service) Withdraw(ctx context.Context, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	active := false
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr, &active)
}

// AssignSection places enrollments into sec after checking every enrollment
// belongs to the section's school year.
func (svc *Service) AssignSection(ctx context.Context, enrollmentIDs []string, sec school.Section) error {
	if len(enrollmentIDs) == 0 {
		return nil
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range enrollmentIDs {
		enr, err := svc.repo.GetEnrollment(ctx, id, tx)
		if err != nil {
			return err
		}
		if enr.SchoolYearID != sec.SchoolYearID {
			return core.NewValidationError(ErrSectionMismatch)
		}
	}
	if err = svc.repo.SetSection(ctx, enrollmentIDs, null.StringFrom(sec.ID), tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (svc *Service) UnassignSection(ctx context.Context, enrollmentIDs []string) error {
	if len(enrollmentIDs) == 0 {
		return nil
	}
	return svc.repo.SetSection(ctx, enrollmentIDs, null.String{})
}
