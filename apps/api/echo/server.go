package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		SchoolSvc      school.Service
		GuardianSvc    guardian.Service
		StudentSvc     student.Service
		EnrollmentSvc  enrollment.Service
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.ERROR)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf)), actorMiddleware)
	registerEnrollmentAPI(v1, s.deps.EnrollmentSvc)
	registerSchoolAPI(v1, s.deps.SchoolSvc)
	registerRegistryAPI(v1, s.deps.GuardianSvc, s.deps.StudentSvc)
}

// Start listens on the configured host. It blocks until the server stops; failures are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
