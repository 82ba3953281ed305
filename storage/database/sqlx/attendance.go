package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

type sessionRecordRow struct {
	ID           string    `db:"id"`
	EnrollmentID string    `db:"enrollment_id"`
	Date         time.Time `db:"date"`
	Session      string    `db:"session"`
	Status       string    `db:"status"`
	Remarks      string    `db:"remarks"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row sessionRecordRow) toRecord() attendance.SessionRecord {
	return attendance.SessionRecord{
		ID:           row.ID,
		EnrollmentID: row.EnrollmentID,
		Date:         attendance.Date(row.Date),
		Session:      attendance.Session(row.Session),
		Status:       attendance.Status(row.Status),
		Remarks:      row.Remarks,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, enrollmentIDs []string, from, to time.Time, exec ...core.DBExecutor) ([]attendance.SessionRecord, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	ex := executor(repo.db, exec)

	var rows []sessionRecordRow
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT id, enrollment_id, date, session, status, remarks, created_at, updated_at
		   FROM session_record
		  WHERE enrollment_id = ANY($1) AND date >= $2 AND date <= $3
		  ORDER BY date ASC, session ASC`,
		pq.Array(enrollmentIDs), from, to,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying session records")
	}
	recs := make([]attendance.SessionRecord, len(rows))
	for i, row := range rows {
		recs[i] = row.toRecord()
	}
	return recs, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.SessionRecord, exec ...core.DBExecutor) (attendance.SessionRecord, bool, error) {
	ex := executor(repo.db, exec)
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	// read the prior status first; callers run this inside the save-day
	// transaction, so the pair is atomic.
	var oldStatus string
	existed := true
	err := sqlx.GetContext(ctx, ex, &oldStatus,
		`SELECT status FROM session_record WHERE enrollment_id = $1 AND date = $2 AND session = $3`,
		rec.EnrollmentID, rec.Date, string(rec.Session),
	)
	if errors.Is(err, sql.ErrNoRows) {
		existed = false
	} else if err != nil {
		return attendance.SessionRecord{}, false, errors.Wrap(err, "checking session record")
	}

	var id string
	err = sqlx.GetContext(ctx, ex, &id,
		`INSERT INTO session_record (id, enrollment_id, date, session, status, remarks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (enrollment_id, date, session)
		 DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		rec.ID, rec.EnrollmentID, rec.Date, string(rec.Session), string(rec.Status), rec.Remarks, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.SessionRecord{}, false, errors.Wrap(err, "upserting session record")
	}
	rec.ID = id
	changed := !existed || attendance.Status(oldStatus) != rec.Status
	return rec, changed, nil
}

func (repo *attendanceRepository) QueryNonSchoolDays(ctx context.Context, schoolYearID string, from, to time.Time, exec ...core.DBExecutor) ([]attendance.NonSchoolDay, error) {
	ex := executor(repo.db, exec)

	type nsdRow struct {
		ID           string    `db:"id"`
		SchoolYearID string    `db:"school_year_id"`
		Date         time.Time `db:"date"`
		Kind         string    `db:"kind"`
		Title        string    `db:"title"`
		Notes        string    `db:"notes"`
	}
	var rows []nsdRow
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT id, school_year_id, date, kind, title, notes
		   FROM non_school_day
		  WHERE school_year_id = $1 AND date >= $2 AND date <= $3
		  ORDER BY date ASC`,
		schoolYearID, from, to,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying non-school days")
	}
	nsds := make([]attendance.NonSchoolDay, len(rows))
	for i, row := range rows {
		nsds[i] = attendance.NonSchoolDay{
			ID:           row.ID,
			SchoolYearID: row.SchoolYearID,
			Date:         attendance.Date(row.Date),
			Kind:         row.Kind,
			Title:        row.Title,
			Notes:        row.Notes,
		}
	}
	return nsds, nil
}

func (repo *attendanceRepository) UpsertNonSchoolDay(ctx context.Context, nsd attendance.NonSchoolDay, exec ...core.DBExecutor) (attendance.NonSchoolDay, bool, error) {
	ex := executor(repo.db, exec)
	if nsd.ID == "" {
		nsd.ID = uuid.New().String()
	}

	var row struct {
		ID       string `db:"id"`
		Inserted bool   `db:"inserted"`
	}
	err := sqlx.GetContext(ctx, ex, &row,
		`INSERT INTO non_school_day (id, school_year_id, date, kind, title, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (school_year_id, date)
		 DO UPDATE SET kind = EXCLUDED.kind, title = EXCLUDED.title, notes = EXCLUDED.notes
		 RETURNING id, (xmax = 0) AS inserted`,
		nsd.ID, nsd.SchoolYearID, nsd.Date, nsd.Kind, nsd.Title, nsd.Notes,
	)
	if err != nil {
		return attendance.NonSchoolDay{}, false, errors.Wrap(err, "upserting non-school day")
	}
	nsd.ID = row.ID
	return nsd, row.Inserted, nil
}

func (repo *attendanceRepository) DeleteNonSchoolDay(ctx context.Context, schoolYearID string, date time.Time, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)
	_, err := ex.ExecContext(ctx,
		`DELETE FROM non_school_day WHERE school_year_id = $1 AND date = $2`, schoolYearID, date)
	return errors.Wrap(err, "deleting non-school day")
}
