package echoweb

import (
	"context"
	"crypto/sha256"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/session"
	"github.com/trezcool/tadesk/core/user"
	appfs "github.com/trezcool/tadesk/fs"
)

const pagesDir = "templates/pages"

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		UserSvc     *user.Service
		Validate    *validator.Validate
		Translators *i18n.Translators
		Dict        *i18n.Dictionary
		CookieStore sessions.Store
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		binder   *i18n.Binder
		pages    map[string]*template.Template
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		binder:   i18n.NewBinder(deps.Dict),
		pages:    parsePages("auth", "page", "error"),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

// NewCookieStore returns the signed and encrypted cookie store holding the client storages.
func NewCookieStore(conf *core.Config) *sessions.CookieStore {
	encKey := sha256.Sum256([]byte("cookie-encryption:" + conf.SecretKey))
	store := sessions.NewCookieStore([]byte(conf.SecretKey), encKey[:])
	store.MaxAge(int(conf.Session.RememberFor.Seconds()))
	return store
}

func parsePages(names ...string) map[string]*template.Template {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		pages[name] = template.Must(template.ParseFS(appfs.FS,
			path.Join(pagesDir, "_base.gohtml"),
			path.Join(pagesDir, name+".gohtml"),
		))
	}
	return pages
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = conf.TestMode
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.clientMiddleware)

	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler()

	s.app.StaticFS("/static", echo.MustSubFS(appfs.FS, "static"))

	// pages
	s.app.GET(session.AuthPath, s.authPage, s.guardMiddleware)
	for _, item := range navItems {
		s.app.GET(item.Path, s.sectionPage(item), s.guardMiddleware)
	}

	// forms
	ag := s.app.Group(session.AuthPath)
	ag.POST("/login", s.login)
	ag.POST("/register", s.register)
	ag.POST("/logout", s.logout)
	s.app.POST("/lang", s.selectLanguage)

	// client scripts
	api := s.app.Group("/api")
	api.GET("/i18n/:lang", s.messages)
	api.GET("/me", s.me)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks the owner of the server to shut it down gracefully.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
