package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/attendance"
	"github.com/talaan-ph/talaan/core/enroll"
	"github.com/talaan-ph/talaan/core/notification"
	"github.com/talaan-ph/talaan/core/school"
	"github.com/talaan-ph/talaan/core/student"
	"github.com/talaan-ph/talaan/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       user.ServiceInterface
		SchoolSvc     school.ServiceInterface
		StudentSvc    student.ServiceInterface
		EnrollSvc     enroll.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		NotifSvc      notification.ServiceInterface
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Logger())
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwtConf := newJWTConfig(conf)
	jwt := middleware.JWTWithConfig(jwtConf)

	registerUserAPI(v1, jwt, s.deps)
	registerSchoolAPI(v1, jwt, s.deps)
	registerStudentAPI(v1, jwt, s.deps)
	registerEnrollAPI(v1, jwt, s.deps)
	registerAttendanceAPI(v1, jwt, s.deps)
	registerNotificationAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// signalShutdown requests a graceful stop; used when a shutdown error bubbles
// up through the error handler.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Talaan API!")
}
