package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

type schoolYearRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row schoolYearRow) toSchoolYear() school.SchoolYear {
	return school.SchoolYear(row)
}

type sectionRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	SchoolYearID string      `db:"school_year_id"`
	AdviserID    null.String `db:"adviser_id"`
}

func (row sectionRow) toSection() school.Section {
	return school.Section{
		ID:           row.ID,
		Name:         row.Name,
		SchoolYearID: row.SchoolYearID,
		AdviserID:    row.AdviserID.String,
	}
}

const schoolYearColumns = `id, name, start_date, end_date, is_active, created_at, updated_at`

func (repo *schoolRepository) CheckSchoolYearNameUniqueness(ctx context.Context, name string, excluded []school.SchoolYear, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)

	query := `SELECT COUNT(*) FROM school_year WHERE name = $1`
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]string, len(excluded))
		for i, sy := range excluded {
			ids[i] = sy.ID
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := sqlx.GetContext(ctx, ex, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking school year name")
	}
	if count > 0 {
		return school.ErrNameExists
	}
	return nil
}

func (repo *schoolRepository) CreateSchoolYear(ctx context.Context, sy school.SchoolYear, exec ...core.DBExecutor) (school.SchoolYear, error) {
	ex := executor(repo.db, exec)
	if sy.ID == "" {
		sy.ID = uuid.New().String()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO school_year (id, name, start_date, end_date, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sy.ID, sy.Name, sy.StartDate, sy.EndDate, sy.IsActive, sy.CreatedAt, sy.UpdatedAt,
	)
	if err != nil {
		return school.SchoolYear{}, errors.Wrap(err, "creating school year")
	}
	return sy, nil
}

func (repo *schoolRepository) QuerySchoolYears(ctx context.Context, exec ...core.DBExecutor) ([]school.SchoolYear, error) {
	ex := executor(repo.db, exec)

	var rows []schoolYearRow
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT `+schoolYearColumns+` FROM school_year ORDER BY start_date DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying school years")
	}
	sys := make([]school.SchoolYear, len(rows))
	for i, row := range rows {
		sys[i] = row.toSchoolYear()
	}
	return sys, nil
}

func (repo *schoolRepository) GetSchoolYear(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.SchoolYear, error) {
	ex := executor(repo.db, exec)

	query := `SELECT ` + schoolYearColumns + ` FROM school_year WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		query += `id = $1`
		args = append(args, filter.ID)
	case filter.Active:
		query += `is_active = TRUE`
	default:
		return school.SchoolYear{}, school.ErrNotFound
	}

	var row schoolYearRow
	if err := sqlx.GetContext(ctx, ex, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.SchoolYear{}, school.ErrNotFound
		}
		return school.SchoolYear{}, errors.Wrap(err, "getting school year")
	}
	return row.toSchoolYear(), nil
}

func (repo *schoolRepository) UpdateSchoolYear(ctx context.Context, sy school.SchoolYear, isActive *bool, exec ...core.DBExecutor) (school.SchoolYear, error) {
	ex := executor(repo.db, exec)

	query := `UPDATE school_year SET name = $2, start_date = $3, end_date = $4, updated_at = $5`
	args := []interface{}{sy.ID, sy.Name, sy.StartDate, sy.EndDate, sy.UpdatedAt}
	if isActive != nil {
		args = append(args, *isActive)
		query += `, is_active = $6`
	}
	query += ` WHERE id = $1`

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return school.SchoolYear{}, errors.Wrap(err, "updating school year")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.SchoolYear{}, school.ErrNotFound
	}
	return repo.GetSchoolYear(ctx, school.GetFilter{ID: sy.ID}, exec...)
}

func (repo *schoolRepository) DeactivateOtherSchoolYears(ctx context.Context, id string, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)
	_, err := ex.ExecContext(ctx, `UPDATE school_year SET is_active = FALSE WHERE id <> $1`, id)
	return errors.Wrap(err, "deactivating other school years")
}

func (repo *schoolRepository) CreateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	ex := executor(repo.db, exec)
	if sec.ID == "" {
		sec.ID = uuid.New().String()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO section (id, name, school_year_id, adviser_id) VALUES ($1, $2, $3, $4)`,
		sec.ID, sec.Name, sec.SchoolYearID, null.NewString(sec.AdviserID, sec.AdviserID != ""),
	)
	if err != nil {
		return school.Section{}, errors.Wrap(err, "creating section")
	}
	return sec, nil
}

func (repo *schoolRepository) QuerySections(ctx context.Context, schoolYearID, adviserID string, exec ...core.DBExecutor) ([]school.Section, error) {
	ex := executor(repo.db, exec)

	query := `SELECT id, name, school_year_id, adviser_id FROM section WHERE school_year_id = $1`
	args := []interface{}{schoolYearID}
	if adviserID != "" {
		query += ` AND adviser_id = $2`
		args = append(args, adviserID)
	}
	query += ` ORDER BY name ASC`

	var rows []sectionRow
	if err := sqlx.SelectContext(ctx, ex, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	secs := make([]school.Section, len(rows))
	for i, row := range rows {
		secs[i] = row.toSection()
	}
	return secs, nil
}

func (repo *schoolRepository) GetSection(ctx context.Context, id string, exec ...core.DBExecutor) (school.Section, error) {
	ex := executor(repo.db, exec)

	var row sectionRow
	err := sqlx.GetContext(ctx, ex, &row,
		`SELECT id, name, school_year_id, adviser_id FROM section WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Section{}, school.ErrSectionNotFound
		}
		return school.Section{}, errors.Wrap(err, "getting section")
	}
	return row.toSection(), nil
}
