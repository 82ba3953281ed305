package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// NewLogger returns a core.Logger that writes through t.Log, except Fatal
// which fails the test immediately.
func NewLogger(t *testing.T) core.Logger {
	return &testLogger{t: t}
}

type testLogger struct {
	t *testing.T
}

var _ core.Logger = (*testLogger)(nil)

func (l *testLogger) log(lvl, msg string, args []interface{}) {
	l.t.Helper()
	if len(args) > 0 {
		l.t.Logf("%s: %s %v", lvl, msg, args)
		return
	}
	l.t.Logf("%s: %s", lvl, msg)
}

func (l *testLogger) Enable(enabled bool) {}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }

func (l *testLogger) Info(msg string, args ...interface{}) { l.log("INFO", msg, args) }

func (l *testLogger) Warn(msg string, args ...interface{}) { l.log("WARN", msg, args) }

func (l *testLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }

func (l *testLogger) Fatal(msg string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatal(fmt.Sprintf("FATAL: %s", msg), args)
}
