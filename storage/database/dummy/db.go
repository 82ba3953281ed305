// Package dummydb is an in-memory storage backend used by tests and local
// development without a database server.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
	"github.com/talaan-ph/talaan/core/user"
)

type (
	DB struct {
		user         *userTable
		school       *schoolTable
		student      *studentTable
		enroll       *enrollTable
		attendance   *attendanceTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table  map[string]*user.User
		access map[string][]user.FeatureAccess
	}

	schoolTable struct {
		sync.RWMutex
		years    map[string]*school.SchoolYear
		sections map[string]*school.Section
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	enrollTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}

	attendanceTable struct {
		sync.RWMutex
		records map[string]*attendance.SessionRecord // by (enrollment, date, session)
		days    map[string]*attendance.NonSchoolDay  // by (school year, date)
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User), access: make(map[string][]user.FeatureAccess)},
		school:       &schoolTable{years: make(map[string]*school.SchoolYear), sections: make(map[string]*school.Section)},
		student:      &studentTable{table: make(map[string]*student.Student)},
		enroll:       &enrollTable{table: make(map[string]*enroll.Enrollment)},
		attendance:   &attendanceTable{records: make(map[string]*attendance.SessionRecord), days: make(map[string]*attendance.NonSchoolDay)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
	return db, nil
}

// tx satisfies core.DBTransactor without real transaction semantics; the
// dummy repositories apply writes immediately.
type tx struct {
	*sql.DB
}

func (tx) Commit() error   { return nil }
func (tx) Rollback() error { return nil }

func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return tx{}, nil
}

// Exec and friends are never reached; dummy repositories ignore executors.
func (db *DB) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (db *DB) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }
func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (db *DB) QueryRow(string, ...interface{}) *sql.Row { return nil }
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}
