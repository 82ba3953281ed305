package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/school"
)

type enrollRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *sqlx.DB) enroll.Repository {
	return &enrollRepository{db: db}
}

// enrollmentRow joins enrollment with its student and, when set, its section.
type enrollmentRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	SchoolYearID string      `db:"school_year_id"`
	SectionID    null.String `db:"section_id"`
	DateEnrolled time.Time   `db:"date_enrolled"`
	Active       bool        `db:"active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`

	Student studentRow `db:"student"`

	SectionName      null.String `db:"section_name"`
	SectionAdviserID null.String `db:"section_adviser_id"`
}

func (row enrollmentRow) toEnrollment() enroll.Enrollment {
	st := row.Student.toStudent()
	enr := enroll.Enrollment{
		ID:           row.ID,
		StudentID:    row.StudentID,
		SchoolYearID: row.SchoolYearID,
		SectionID:    row.SectionID,
		DateEnrolled: row.DateEnrolled,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		Student:      &st,
	}
	if row.SectionID.Valid {
		enr.Section = &school.Section{
			ID:           row.SectionID.String,
			Name:         row.SectionName.String,
			SchoolYearID: row.SchoolYearID,
			AdviserID:    row.SectionAdviserID.String,
		}
	}
	return enr
}

const enrollmentSelect = `
	SELECT e.id, e.student_id, e.school_year_id, e.section_id, e.date_enrolled, e.active, e.created_at, e.updated_at,
	       st.id AS "student.id", st.lrn AS "student.lrn", st.last_name AS "student.last_name",
	       st.first_name AS "student.first_name", st.middle_name AS "student.middle_name",
	       st.sex AS "student.sex", st.birthdate AS "student.birthdate", st.is_active AS "student.is_active",
	       st.guardian_name AS "student.guardian_name", st.guardian_phone AS "student.guardian_phone",
	       st.created_at AS "student.created_at", st.updated_at AS "student.updated_at",
	       sec.name AS section_name, sec.adviser_id AS section_adviser_id
	  FROM enrollment e
	  JOIN student st ON st.id = e.student_id
	  LEFT JOIN section sec ON sec.id = e.section_id`

func (repo *enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	ex := executor(repo.db, exec)
	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO enrollment (id, student_id, school_year_id, section_id, date_enrolled, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		enr.ID, enr.StudentID, enr.SchoolYearID, enr.SectionID, enr.DateEnrolled, enr.Active, enr.CreatedAt, enr.UpdatedAt,
	)
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return repo.GetEnrollment(ctx, enr.ID, exec...)
}

func (repo *enrollRepository) QueryEnrollments(ctx context.Context, filter enroll.QueryFilter, exec ...core.DBExecutor) ([]enroll.Enrollment, error) {
	ex := executor(repo.db, exec)

	query := enrollmentSelect + ` WHERE e.school_year_id = $1`
	args := []interface{}{filter.SchoolYearID}
	if filter.SectionID != "" {
		args = append(args, filter.SectionID)
		query += ` AND e.section_id = $2`
	}
	if filter.AdviserID != "" {
		args = append(args, filter.AdviserID)
		query += fmt.Sprintf(` AND sec.adviser_id = $%d`, len(args))
	}
	if filter.ActiveOnly {
		query += ` AND e.active = TRUE`
	}
	query += ` ORDER BY st.last_name ASC, st.first_name ASC`

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, ex, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enroll.Enrollment, len(rows))
	for i, row := range rows {
		enrs[i] = row.toEnrollment()
	}
	return enrs, nil
}

func (repo *enrollRepository) GetEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	ex := executor(repo.db, exec)

	var row enrollmentRow
	if err := sqlx.GetContext(ctx, ex, &row, enrollmentSelect+` WHERE e.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollRepository) FindEnrollment(ctx context.Context, studentID, schoolYearID string, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	ex := executor(repo.db, exec)

	var row enrollmentRow
	err := sqlx.GetContext(ctx, ex, &row,
		enrollmentSelect+` WHERE e.student_id = $1 AND e.school_year_id = $2`, studentID, schoolYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollRepository) UpdateEnrollment(ctx context.Context, enr enroll.Enrollment, active *bool, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	ex := executor(repo.db, exec)

	query := `UPDATE enrollment SET updated_at = $2`
	args := []interface{}{enr.ID, enr.UpdatedAt}
	if active != nil {
		args = append(args, *active)
		query += `, active = $3`
	}
	query += ` WHERE id = $1`

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	return repo.GetEnrollment(ctx, enr.ID, exec...)
}

func (repo *enrollRepository) SetSection(ctx context.Context, enrollmentIDs []string, sectionID null.String, exec ...core.DBExecutor) error {
	if len(enrollmentIDs) == 0 {
		return nil
	}
	ex := executor(repo.db, exec)
	_, err := ex.ExecContext(ctx,
		`UPDATE enrollment SET section_id = $1, updated_at = now() WHERE id = ANY($2)`,
		sectionID, pq.Array(enrollmentIDs),
	)
	return errors.Wrap(err, "assigning section")
}
