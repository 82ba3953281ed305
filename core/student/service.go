package student

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
	// ErrHasRecords guards hard deletes of students with enrollments or attendance.
	ErrHasRecords = errors.New("student has linked enrollments or attendance; archive instead")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, st Student, isActive *bool, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
		// CountLinkedRecords returns the number of enrollments and attendance facts
		// referencing the student.
		CountLinkedRecords(ctx context.Context, id string, exec ...core.DBExecutor) (enrollments, facts int, err error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		Archive(ctx context.Context, id string) (Student, error)
		Restore(ctx context.Context, id string) (Student, error)
		Delete(ctx context.Context, id string, force bool) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		LRN:           ns.LRN,
		LastName:      ns.LastName,
		FirstName:     ns.FirstName,
		MiddleName:    ns.MiddleName,
		Sex:           ns.Sex,
		Birthdate:     ns.Birthdate,
		IsActive:      true,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	if filter != nil {
		filter.Search = core.CleanString(filter.Search)
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st := Student{
		ID:            id,
		LRN:           us.LRN,
		LastName:      us.LastName,
		FirstName:     us.FirstName,
		MiddleName:    us.MiddleName,
		Sex:           us.Sex,
		Birthdate:     us.Birthdate,
		GuardianName:  us.GuardianName,
		GuardianPhone: us.GuardianPhone,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, st, nil)
}

// Archive soft-deletes a student, keeping enrollment and attendance history.
func (svc *Service) Archive(ctx context.Context, id string) (Student, error) {
	inactive := false
	return svc.repo.UpdateStudent(ctx, Student{ID: id, UpdatedAt: time.Now().UTC()}, &inactive)
}

func (svc *Service) Restore(ctx context.Context, id string) (Student, error) {
	active := true
	return svc.repo.UpdateStudent(ctx, Student{ID: id, UpdatedAt: time.Now().UTC()}, &active)
}

// Delete hard-deletes a student. Unless force is set, deletion is refused when
// enrollments or attendance facts still reference the student.
func (svc *Service) Delete(ctx context.Context, id string, force bool) error {
	if !force {
		enrollments, facts, err := svc.repo.CountLinkedRecords(ctx, id)
		if err != nil {
			return errors.Wrap(err, "counting linked records")
		}
		if enrollments > 0 || facts > 0 {
			return core.NewValidationError(ErrHasRecords)
		}
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// Birthday pairs a student with their next birthday occurrence.
type Birthday struct {
	Student Student   `json:"student"`
	Date    time.Time `json:"date"`
}

// UpcomingBirthdays returns students whose next birthday falls within `window`
// days of viewDate, soonest first. Students without a birthdate are skipped.
func UpcomingBirthdays(students []Student, viewDate time.Time, window int) []Birthday {
	var out []Birthday
	for _, st := range students {
		if st.Birthdate.IsZero() {
			continue
		}
		next := time.Date(viewDate.Year(), st.Birthdate.Month(), st.Birthdate.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(viewDate) {
			next = next.AddDate(1, 0, 0)
		}
		if daysUntil := int(next.Sub(viewDate).Hours() / 24); daysUntil >= 0 && daysUntil <= window {
			out = append(out, Birthday{Student: st, Date: next})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
