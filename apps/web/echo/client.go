package echoweb

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/session"
	"github.com/trezcool/tadesk/storage/webstorage"
)

const (
	// client storage cookies
	durableCookie = "tadesk_local"
	tabCookie     = "tadesk_tab"

	clientCtxKey = "client"

	headerContentLanguage = "Content-Language"
)

// client is the state of one browser, rebuilt from its cookies on every request.
type client struct {
	durable *webstorage.Storage // outlives the browser session
	tab     *webstorage.Storage // dropped when the browser closes
	lang    *i18n.Selector
	session *session.Store
}

func (s *server) cookieOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.deps.Conf.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// defaultLanguage is the language of a client without a stored preference.
func (s *server) defaultLanguage(r *http.Request) i18n.Code {
	if s.deps.Conf.Web.NegotiateLanguage {
		if lang, ok := i18n.MatchAcceptLanguage(r.Header.Get("Accept-Language")); ok {
			return lang
		}
	}
	if lang, ok := i18n.Parse(s.deps.Conf.DefaultLanguage); ok {
		return lang
	}
	return i18n.DefaultCode
}

// clientMiddleware binds the client storages, language selector and session store to the request.
// The cookies are written back right before the response headers go out.
func (s *server) clientMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req, res := ctx.Request(), ctx.Response()
		conf := s.deps.Conf

		cl := &client{
			durable: webstorage.New(s.deps.CookieStore, req, res, durableCookie,
				s.cookieOptions(int(conf.Session.RememberFor.Seconds()))),
			tab: webstorage.New(s.deps.CookieStore, req, res, tabCookie, s.cookieOptions(0)),
		}
		cl.lang = i18n.NewSelector(req.Context(), cl.durable, s.defaultLanguage(req))
		cl.session = session.NewStore(s.deps.UserSvc, s.deps.Validate, cl.durable, cl.tab,
			session.WithLatency(conf.Session.Latency))

		res.Header().Set(headerContentLanguage, cl.lang.Current().String())
		cl.lang.OnChange(func(lang i18n.Code) {
			res.Header().Set(headerContentLanguage, lang.String())
		})

		res.Before(func() {
			if err := cl.save(); err != nil {
				s.deps.Logger.Error("saving client storage", err)
			}
		})

		ctx.Set(clientCtxKey, cl)
		return next(ctx)
	}
}

// save writes the changed cookies. Handlers call it before reporting success.
// The response hook writes whatever is left.
func (cl *client) save() error {
	for _, storage := range []*webstorage.Storage{cl.durable, cl.tab} {
		if err := storage.Save(); err != nil {
			return err
		}
	}
	return nil
}

func getClient(ctx echo.Context) (*client, bool) {
	cl, ok := ctx.Get(clientCtxKey).(*client)
	return cl, ok && cl != nil
}

// guardMiddleware runs the page guard on every page load.
func (s *server) guardMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cl, err := mustClient(ctx)
		if err != nil {
			return err
		}
		if d := cl.session.Guard(ctx.Request().Context(), ctx.Request().URL.Path); !d.Allowed() {
			return ctx.Redirect(http.StatusFound, d.Redirect)
		}
		return next(ctx)
	}
}

func mustClient(ctx echo.Context) (*client, error) {
	cl, ok := getClient(ctx)
	if !ok {
		return nil, errClientMissing
	}
	return cl, nil
}
