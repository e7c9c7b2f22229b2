package echoweb

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
)

const (
	// flash kinds
	flashError   = "error"
	flashSuccess = "success"
)

type (
	navItem struct {
		Path string
		Key  string
	}

	flash struct {
		Kind string
		Key  string
		Text string
	}

	// authForm holds the submitted values shown back after a failure.
	authForm map[string]string

	pageData struct {
		Lang         i18n.Code
		TitleKey     string
		Path         string
		User         *user.User
		Nav          []navItem
		Languages    []i18n.Option
		Flashes      []flash
		DismissAfter int64 // ms

		// section pages
		Welcome string

		// auth page
		Form        authForm
		Errors      map[string]string
		Departments []user.Choice
		Titles      []user.Choice
	}
)

var navItems = []navItem{
	{Path: "/", Key: "dashboard"},
	{Path: "/courses", Key: "courseDesign"},
	{Path: "/students", Key: "studentManagement"},
	{Path: "/assignments", Key: "assignmentGrading"},
	{Path: "/assistant", Key: "aiAssistant"},
}

// render executes the named page and runs the text binder over it in the client's language.
func (s *server) render(ctx echo.Context, code int, name string, data *pageData) error {
	cl, err := mustClient(ctx)
	if err != nil {
		return err
	}
	tmpl, ok := s.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}

	reqCtx := ctx.Request().Context()
	lang := cl.lang.Current()
	data.Lang = lang
	data.Path = ctx.Request().URL.Path
	data.Languages = cl.lang.Options()
	data.DismissAfter = s.deps.Conf.Web.FlashDismissAfter.Milliseconds()
	if usr, ok := cl.session.Current(reqCtx); ok {
		data.User = &usr
		data.Nav = navItems
	}
	for _, kind := range []string{flashError, flashSuccess} {
		for _, key := range cl.tab.Flashes(kind) {
			data.Flashes = append(data.Flashes, flash{Kind: kind, Key: key})
		}
	}
	for i := range data.Flashes {
		data.Flashes[i].Text = s.deps.Dict.Lookup(lang, data.Flashes[i].Key)
	}

	var page bytes.Buffer
	if err = tmpl.ExecuteTemplate(&page, "base", data); err != nil {
		return errors.Wrapf(err, "executing %s page", name)
	}
	var out bytes.Buffer
	if err = s.binder.Render(&out, &page, lang); err != nil {
		return errors.Wrapf(err, "translating %s page", name)
	}
	return ctx.HTMLBlob(code, out.Bytes())
}

// Handlers

func (s *server) authPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "auth", newAuthPage(nil, nil))
}

func newAuthPage(form authForm, fldErrs map[string]string) *pageData {
	return &pageData{
		TitleKey:    "login",
		Form:        form,
		Errors:      fldErrs,
		Departments: user.Departments,
		Titles:      user.Titles,
	}
}

func (s *server) sectionPage(item navItem) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cl, err := mustClient(ctx)
		if err != nil {
			return err
		}
		lang := cl.lang.Current()
		usr, _ := cl.session.Current(ctx.Request().Context())
		return s.render(ctx, http.StatusOK, "page", &pageData{
			TitleKey: item.Key,
			Welcome:  s.deps.Dict.Format(lang, "welcomeBack", usr.GreetingName(lang)),
		})
	}
}
