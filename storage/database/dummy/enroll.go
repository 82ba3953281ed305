package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/enroll"
)

type enrollRepository struct {
	db  *enrollTable
	all *DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) enroll.Repository {
	return &enrollRepository{db: db.enroll, all: db}
}

// join fills the Student and Section references from the other tables.
func (repo *enrollRepository) join(enr enroll.Enrollment) enroll.Enrollment {
	repo.all.student.RLock()
	if st, ok := repo.all.student.table[enr.StudentID]; ok {
		cp := *st
		enr.Student = &cp
	}
	repo.all.student.RUnlock()

	if enr.SectionID.Valid {
		repo.all.school.RLock()
		if sec, ok := repo.all.school.sections[enr.SectionID.String]; ok {
			cp := *sec
			enr.Section = &cp
		}
		repo.all.school.RUnlock()
	}
	return enr
}

func (repo *enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.db.Lock()
	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	stored := enr
	repo.db.table[enr.ID] = &stored
	repo.db.Unlock()

	return repo.join(enr), nil
}

func (repo *enrollRepository) QueryEnrollments(ctx context.Context, filter enroll.QueryFilter, exec ...core.DBExecutor) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	var raw []enroll.Enrollment
	for _, enr := range repo.db.table {
		if enr.SchoolYearID != filter.SchoolYearID {
			continue
		}
		if filter.SectionID != "" && enr.SectionID.String != filter.SectionID {
			continue
		}
		if filter.ActiveOnly && !enr.Active {
			continue
		}
		raw = append(raw, *enr)
	}
	repo.db.RUnlock()

	var enrs []enroll.Enrollment
	for _, enr := range raw {
		joined := repo.join(enr)
		if filter.AdviserID != "" && (joined.Section == nil || joined.Section.AdviserID != filter.AdviserID) {
			continue
		}
		enrs = append(enrs, joined)
	}
	sort.Slice(enrs, func(i, j int) bool {
		var a, b string
		if enrs[i].Student != nil {
			a = enrs[i].Student.DisplayName()
		}
		if enrs[j].Student != nil {
			b = enrs[j].Student.DisplayName()
		}
		return a < b
	})
	return enrs, nil
}

func (repo *enrollRepository) GetEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.db.RLock()
	enr, ok := repo.db.table[id]
	if !ok {
		repo.db.RUnlock()
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	cp := *enr
	repo.db.RUnlock()
	return repo.join(cp), nil
}

func (repo *enrollRepository) FindEnrollment(ctx context.Context, studentID, schoolYearID string, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.db.RLock()
	for _, enr := range repo.db.table {
		if enr.StudentID == studentID && enr.SchoolYearID == schoolYearID {
			cp := *enr
			repo.db.RUnlock()
			return repo.join(cp), nil
		}
	}
	repo.db.RUnlock()
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollRepository) UpdateEnrollment(ctx context.Context, enr enroll.Enrollment, active *bool, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.db.Lock()
	existing, ok := repo.db.table[enr.ID]
	if !ok {
		repo.db.Unlock()
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	if active != nil {
		existing.Active = *active
	}
	existing.UpdatedAt = enr.UpdatedAt
	cp := *existing
	repo.db.Unlock()
	return repo.join(cp), nil
}

func (repo *enrollRepository) SetSection(ctx context.Context, enrollmentIDs []string, sectionID null.String, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range enrollmentIDs {
		if enr, ok := repo.db.table[id]; ok {
			enr.SectionID = sectionID
		}
	}
	return nil
}
