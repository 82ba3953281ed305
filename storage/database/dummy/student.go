package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/student"
)

type studentRepository struct {
	db  *studentTable
	all *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student, all: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []student.Student
	for _, st := range repo.db.table {
		if filter == nil || !filter.IncludeArchived {
			if !st.IsActive {
				continue
			}
		}
		if filter != nil && filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(st.LastName), s) &&
				!strings.Contains(strings.ToLower(st.FirstName), s) &&
				!strings.Contains(strings.ToLower(st.MiddleName), s) &&
				!strings.Contains(strings.ToLower(st.LRN), s) {
				continue
			}
		}
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].DisplayName() < students[j].DisplayName()
	})
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, isActive *bool, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}

	if st.LastName != "" {
		existing.LastName = st.LastName
	}
	if st.FirstName != "" {
		existing.FirstName = st.FirstName
	}
	if st.MiddleName != "" {
		existing.MiddleName = st.MiddleName
	}
	if st.Sex != "" {
		existing.Sex = st.Sex
	}
	if st.LRN != "" {
		existing.LRN = st.LRN
	}
	if !st.Birthdate.IsZero() {
		existing.Birthdate = st.Birthdate
	}
	if st.GuardianName != "" {
		existing.GuardianName = st.GuardianName
	}
	if st.GuardianPhone != "" {
		existing.GuardianPhone = st.GuardianPhone
	}
	if isActive != nil {
		existing.IsActive = *isActive
	}
	existing.UpdatedAt = st.UpdatedAt
	return *existing, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}

func (repo *studentRepository) CountLinkedRecords(ctx context.Context, id string, exec ...core.DBExecutor) (enrollments, facts int, err error) {
	repo.all.enroll.RLock()
	enrollmentIDs := make(map[string]struct{})
	for _, enr := range repo.all.enroll.table {
		if enr.StudentID == id {
			enrollments++
			enrollmentIDs[enr.ID] = struct{}{}
		}
	}
	repo.all.enroll.RUnlock()

	repo.all.attendance.RLock()
	for _, rec := range repo.all.attendance.records {
		if _, ok := enrollmentIDs[rec.EnrollmentID]; ok {
			facts++
		}
	}
	repo.all.attendance.RUnlock()
	return enrollments, facts, nil
}
