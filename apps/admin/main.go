package main

import (
	"log"
	"os"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
	cachesvc "github.com/talaan-ph/talaan/services/cache"
	logsvc "github.com/talaan-ph/talaan/services/logger"
	"github.com/talaan-ph/talaan/storage/database"
	sqlxrepos "github.com/talaan-ph/talaan/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services; summaries are not cached in one-shot CLI runs
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	enrollRepo := sqlxrepos.NewEnrollRepository(db.DB)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db.DB))
	attSvc := attendance.NewService(
		db, sqlxrepos.NewAttendanceRepository(db.DB), enrollRepo, notifSvc,
		cachesvc.NewNoopCache(), appLogger, conf)

	// start CLI
	cli := commandLine{
		db:        db.DB.DB,
		usrRepo:   sqlxrepos.NewUserRepository(db.DB),
		schoolSvc: school.NewService(db, sqlxrepos.NewSchoolRepository(db.DB)),
		attSvc:    attSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
