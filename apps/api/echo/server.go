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

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
	"github.com/brighttutor/brightdesk/core/registration"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
)

type (
	ServerDeps struct {
		Logger          core.Logger
		Validate        *validator.Validate
		Translator      ut.Translator
		UserSvc         user.ServiceInterface
		TaskSvc         task.ServiceInterface
		RegistrationSvc *registration.Service
		Countries       *country.Directory
		DisableReqLogs  bool
	}

	Server struct {
		conf     *core.Config
		deps     ServerDeps
		app      *echo.Echo
		revoked  *revocations
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, deps ServerDeps) *Server {
	s := &Server{
		conf:     conf,
		deps:     deps,
		app:      echo.New(),
		revoked:  newRevocations(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Logger.SetLevel(log.INFO)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{s.conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := authMiddleware(s.conf, s.revoked)

	registerSessionAPI(v1, jwt, s.conf, s.revoked, s.deps.UserSvc, s.deps.Validate)
	registerTaskAPI(v1, jwt, s.revoked, s.deps.TaskSvc, s.deps.UserSvc, s.deps.Validate, s.deps.Logger)
	registerCountryAPI(v1, s.deps.Countries)
	registerRegistrationAPI(v1, s.conf, s.deps.RegistrationSvc)
}

// Start starts the server and reports its exit error on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// OnShutdown registers fn to run as soon as Shutdown is called, while
// the in-flight requests are still draining.
func (s *Server) OnShutdown(fn func()) {
	s.app.Server.RegisterOnShutdown(fn)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

// Close stops the server immediately.
func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to BrightDesk API!")
}
