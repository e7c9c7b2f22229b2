package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/session"
	"github.com/trezcool/tadesk/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Remember bool   `json:"remember" form:"remember"`
	}

	LanguageRequest struct {
		Lang string `json:"lang" form:"lang"`
		Next string `json:"next" form:"next"`
	}

	meResponse struct {
		User     user.User `json:"user"`
		Lang     i18n.Code `json:"lang"`
		Greeting string    `json:"greeting"`
	}
)

func (s *server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}

	if _, err = cl.session.Login(ctx.Request().Context(), data.Email, data.Password, data.Remember); err != nil {
		return s.authFailure(ctx, err, authForm{"email": data.Email})
	}
	cl.tab.AddFlash(flashSuccess, "loginSuccess")
	if err = cl.save(); err != nil {
		return errors.Wrap(err, "opening session")
	}
	return ctx.Redirect(http.StatusSeeOther, session.HomePath)
}

func (s *server) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}

	if _, err = cl.session.Register(ctx.Request().Context(), data, cl.lang.Current()); err != nil {
		return s.authFailure(ctx, err, authForm{
			"name":          data.Name,
			"registerEmail": data.Email,
			"department":    data.Department,
			"title":         data.Title,
		})
	}
	cl.tab.AddFlash(flashSuccess, "registerSuccess")
	if err = cl.save(); err != nil {
		return errors.Wrap(err, "opening session")
	}
	return ctx.Redirect(http.StatusSeeOther, session.HomePath)
}

// authFailure shows the auth page again with the error the visitor can fix.
// Other errors go to the HTTP error handler.
func (s *server) authFailure(ctx echo.Context, err error, form authForm) error {
	cl, cErr := mustClient(ctx)
	if cErr != nil {
		return cErr
	}
	uErr, ok := s.userError(err, cl.lang.Current())
	if !ok {
		return err
	}
	data := newAuthPage(form, uErr.fields)
	data.Flashes = []flash{{Kind: flashError, Key: uErr.key}}
	return s.render(ctx, uErr.code, "auth", data)
}

func (s *server) logout(ctx echo.Context) error {
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}
	if err = cl.session.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	cl.tab.AddFlash(flashSuccess, "loggedOut")
	return ctx.Redirect(http.StatusSeeOther, session.AuthPath)
}

func (s *server) selectLanguage(ctx echo.Context) error {
	var data LanguageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LanguageRequest")
	}
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}

	if lang, ok := i18n.Parse(data.Lang); ok {
		if err = cl.lang.Select(ctx.Request().Context(), lang); err != nil {
			return errors.Wrap(err, "selecting language")
		}
	}
	return ctx.Redirect(http.StatusSeeOther, localPath(data.Next))
}

// localPath keeps redirects on this site.
// Browsers drop tabs and newlines and read backslashes as slashes, so any of them is refused.
func localPath(next string) string {
	if strings.ContainsRune(next, '\\') || strings.IndexFunc(next, unicode.IsControl) >= 0 {
		return session.HomePath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil ||
		!strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return session.HomePath
	}
	return next
}

func (s *server) messages(ctx echo.Context) error {
	lang, ok := i18n.Parse(ctx.Param("lang"))
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s.deps.Dict.Messages(lang))
}

func (s *server) me(ctx echo.Context) error {
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}
	usr, ok := cl.session.Current(ctx.Request().Context())
	if !ok {
		return errUnauthorized
	}
	lang := cl.lang.Current()
	return ctx.JSON(http.StatusOK, meResponse{
		User:     usr,
		Lang:     lang,
		Greeting: s.deps.Dict.Format(lang, "welcomeBack", usr.GreetingName(lang)),
	})
}
