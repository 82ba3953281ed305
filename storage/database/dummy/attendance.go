package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func recordKey(enrollmentID string, date time.Time, session attendance.Session) string {
	return enrollmentID + "|" + date.Format("2006-01-02") + "|" + string(session)
}

func dayKey(schoolYearID string, date time.Time) string {
	return schoolYearID + "|" + date.Format("2006-01-02")
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, enrollmentIDs []string, from, to time.Time, exec ...core.DBExecutor) ([]attendance.SessionRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]struct{}, len(enrollmentIDs))
	for _, id := range enrollmentIDs {
		wanted[id] = struct{}{}
	}

	var recs []attendance.SessionRecord
	for _, rec := range repo.db.records {
		if _, ok := wanted[rec.EnrollmentID]; !ok {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.Before(recs[j].Date)
		}
		return recs[i].Session < recs[j].Session
	})
	return recs, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.SessionRecord, exec ...core.DBExecutor) (attendance.SessionRecord, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey(rec.EnrollmentID, rec.Date, rec.Session)
	if existing, ok := repo.db.records[key]; ok {
		changed := existing.Status != rec.Status
		existing.Status = rec.Status
		existing.Remarks = rec.Remarks
		existing.UpdatedAt = rec.UpdatedAt
		return *existing, changed, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.records[key] = &rec
	return rec, true, nil
}

func (repo *attendanceRepository) QueryNonSchoolDays(ctx context.Context, schoolYearID string, from, to time.Time, exec ...core.DBExecutor) ([]attendance.NonSchoolDay, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var nsds []attendance.NonSchoolDay
	for _, nsd := range repo.db.days {
		if nsd.SchoolYearID != schoolYearID {
			continue
		}
		if nsd.Date.Before(from) || nsd.Date.After(to) {
			continue
		}
		nsds = append(nsds, *nsd)
	}
	sort.Slice(nsds, func(i, j int) bool { return nsds[i].Date.Before(nsds[j].Date) })
	return nsds, nil
}

func (repo *attendanceRepository) UpsertNonSchoolDay(ctx context.Context, nsd attendance.NonSchoolDay, exec ...core.DBExecutor) (attendance.NonSchoolDay, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := dayKey(nsd.SchoolYearID, nsd.Date)
	if existing, ok := repo.db.days[key]; ok {
		existing.Kind = nsd.Kind
		existing.Title = nsd.Title
		existing.Notes = nsd.Notes
		return *existing, false, nil
	}

	if nsd.ID == "" {
		nsd.ID = uuid.New().String()
	}
	repo.db.days[key] = &nsd
	return nsd, true, nil
}

func (repo *attendanceRepository) DeleteNonSchoolDay(ctx context.Context, schoolYearID string, date time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.days, dayKey(schoolYearID, date))
	return nil
}
