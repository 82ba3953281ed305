package main

import (
	"context"
	"expvar"
	"fmt"
	stdlog "log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/talaan-ph/talaan/apps/api/echo"
	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
	"github.com/talaan-ph/talaan/core/user"
	cachesvc "github.com/talaan-ph/talaan/services/cache"
	emailsvc "github.com/talaan-ph/talaan/services/email"
	logsvc "github.com/talaan-ph/talaan/services/logger"
	"github.com/talaan-ph/talaan/storage/database"
	sqlxrepos "github.com/talaan-ph/talaan/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		stdlog.New(os.Stdout, "API : ", stdlog.LstdFlags|stdlog.Lmicroseconds|stdlog.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	cache := cachesvc.NewMemoryCache(conf.SummaryCacheTTL)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db.DB), mailSvc, conf)
	schoolSvc := school.NewService(db, sqlxrepos.NewSchoolRepository(db.DB))
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db.DB))
	enrollRepo := sqlxrepos.NewEnrollRepository(db.DB)
	enrollSvc := enroll.NewService(db, enrollRepo)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db.DB))
	attendanceSvc := attendance.NewService(
		db, sqlxrepos.NewAttendanceRepository(db.DB), enrollRepo, notifSvc, cache, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			SchoolSvc:     schoolSvc,
			StudentSvc:    studentSvc,
			EnrollSvc:     enrollSvc,
			AttendanceSvc: attendanceSvc,
			NotifSvc:      notifSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*database.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB.DB); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
