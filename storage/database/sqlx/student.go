package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID            string    `db:"id"`
	LRN           string    `db:"lrn"`
	LastName      string    `db:"last_name"`
	FirstName     string    `db:"first_name"`
	MiddleName    string    `db:"middle_name"`
	Sex           string    `db:"sex"`
	Birthdate     null.Time `db:"birthdate"`
	IsActive      bool      `db:"is_active"`
	GuardianName  string    `db:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row studentRow) toStudent() student.Student {
	return student.Student{
		ID:            row.ID,
		LRN:           row.LRN,
		LastName:      row.LastName,
		FirstName:     row.FirstName,
		MiddleName:    row.MiddleName,
		Sex:           row.Sex,
		Birthdate:     row.Birthdate.Time,
		IsActive:      row.IsActive,
		GuardianName:  row.GuardianName,
		GuardianPhone: row.GuardianPhone,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

const studentColumns = `id, lrn, last_name, first_name, middle_name, sex, birthdate, is_active, guardian_name, guardian_phone, created_at, updated_at`

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	ex := executor(repo.db, exec)
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO student (id, lrn, last_name, first_name, middle_name, sex, birthdate, is_active, guardian_name, guardian_phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		st.ID, st.LRN, st.LastName, st.FirstName, st.MiddleName, st.Sex,
		null.NewTime(st.Birthdate, !st.Birthdate.IsZero()), st.IsActive,
		st.GuardianName, st.GuardianPhone, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	return st, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	ex := executor(repo.db, exec)

	query := `SELECT ` + studentColumns + ` FROM student`
	var clauses []string
	var args []interface{}
	if filter != nil {
		if !filter.IncludeArchived {
			clauses = append(clauses, `is_active = TRUE`)
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			clauses = append(clauses, `(last_name ILIKE $1 OR first_name ILIKE $1 OR middle_name ILIKE $1 OR lrn ILIKE $1)`)
		}
	} else {
		clauses = append(clauses, `is_active = TRUE`)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "last_name ASC, first_name ASC")

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, ex, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, len(rows))
	for i, row := range rows {
		students[i] = row.toStudent()
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	ex := executor(repo.db, exec)

	var row studentRow
	err := sqlx.GetContext(ctx, ex, &row, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, isActive *bool, exec ...core.DBExecutor) (student.Student, error) {
	ex := executor(repo.db, exec)

	query := `UPDATE student SET updated_at = $2`
	args := []interface{}{st.ID, st.UpdatedAt}
	set := func(column string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(`, %s = $%d`, column, len(args))
	}

	if st.LastName != "" {
		set("last_name", st.LastName)
	}
	if st.FirstName != "" {
		set("first_name", st.FirstName)
	}
	if st.Sex != "" {
		set("sex", st.Sex)
	}
	if st.LRN != "" {
		set("lrn", st.LRN)
	}
	if st.MiddleName != "" {
		set("middle_name", st.MiddleName)
	}
	if !st.Birthdate.IsZero() {
		set("birthdate", st.Birthdate)
	}
	if st.GuardianName != "" {
		set("guardian_name", st.GuardianName)
	}
	if st.GuardianPhone != "" {
		set("guardian_phone", st.GuardianPhone)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	query += ` WHERE id = $1`

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, st.ID, exec...)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)
	_, err := ex.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	return errors.Wrap(err, "deleting student")
}

func (repo *studentRepository) CountLinkedRecords(ctx context.Context, id string, exec ...core.DBExecutor) (enrollments, facts int, err error) {
	ex := executor(repo.db, exec)

	if err = sqlx.GetContext(ctx, ex, &enrollments,
		`SELECT COUNT(*) FROM enrollment WHERE student_id = $1`, id); err != nil {
		return 0, 0, errors.Wrap(err, "counting enrollments")
	}
	if err = sqlx.GetContext(ctx, ex, &facts,
		`SELECT COUNT(*) FROM session_record sr JOIN enrollment e ON e.id = sr.enrollment_id WHERE e.student_id = $1`, id); err != nil {
		return 0, 0, errors.Wrap(err, "counting session records")
	}
	return enrollments, facts, nil
}
