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
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

type (
	// Deps holds everything the API handlers need.
	Deps struct {
		Conf            *core.Config
		Logger          core.Logger
		DB              core.Pinger
		Validate        *validator.Validate
		Translator      ut.Translator
		UserSvc         *user.Service
		WorkspaceSvc    *workspace.Service
		InviteSvc       *invite.Service
		NotificationSvc *notification.Service
	}

	Server struct {
		app      *echo.Echo
		deps     *Deps
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps *Deps) *Server {
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !deps.Conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	g.GET("/health", s.health)

	jwt := newSessionMiddleware(conf)
	auth := requireUser(s.deps.UserSvc)

	registerUserAPI(g, jwt, auth, s.deps)
	registerWorkspaceAPI(g, jwt, auth, s.deps)
	registerInviteAPI(g, jwt, auth, s.deps)
	registerNotificationAPI(g, jwt, auth, s.deps)
}

// Start blocks until the server stops. Unexpected failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
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
	default: // a shutdown is already pending
	}
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SchoolCal API!")
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.deps.DB.PingContext(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
