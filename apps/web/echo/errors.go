package echoweb

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/session"
	"github.com/trezcool/tadesk/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

	errClientMissing = errors.New("client not bound to echo.Context")

	// flash message per failed validation tag
	tagMessageKeys = map[string]string{
		"required":   "fillAllFields",
		"email":      "validation.email",
		"eqfield":    "passwordMismatch",
		"pwdminlen":  "passwordTooShort",
		"pwdtoosim":  "validation.pwdtoosim",
		"accepted":   "agreeTermsRequired",
		"max":        "validation.max",
		"department": "validation.choice",
		"title":      "validation.choice",
	}
)

// userErr is an error the visitor can fix: bad input or bad credentials.
type userErr struct {
	code   int
	key    string            // flash message key
	fields map[string]string // field -> localized message
}

func (s *server) userError(err error, lang i18n.Code) (userErr, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		translator := s.deps.Translators.Get(lang)
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			if _, ok := fldErrs[vErr.Field()]; !ok {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
		}
		key, ok := tagMessageKeys[origErr[0].Tag()]
		if !ok {
			key = "registerFailed"
		}
		return userErr{code: http.StatusBadRequest, key: key, fields: fldErrs}, true

	case *core.ValidationError:
		var fldErrs map[string]string
		if origErr.Fields != nil {
			fldErrs = make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = s.deps.Dict.Lookup(lang, fErr.Error)
			}
		}
		key := "registerFailed"
		switch errors.Cause(origErr.Err) {
		case user.ErrEmailExists:
			key = "emailExists"
		case session.ErrMissingCredentials:
			key = "fillAllFields"
		}
		return userErr{code: http.StatusBadRequest, key: key, fields: fldErrs}, true
	}

	if errors.Cause(err) == user.ErrInvalidCredentials {
		return userErr{code: http.StatusUnauthorized, key: "invalidCredentials"}, true
	}
	return userErr{}, false
}

// requestLanguage is the language of the client, or the configured default when no client is bound.
func (s *server) requestLanguage(ctx echo.Context) i18n.Code {
	if cl, ok := getClient(ctx); ok {
		return cl.lang.Current()
	}
	return s.defaultLanguage(ctx.Request())
}

func wantsJSON(ctx echo.Context) bool {
	req := ctx.Request()
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Pages get a translated error page; JSON clients get {"error": msg} or a field -> message map.
// A core.shutdown error asks the server to shut down gracefully.
func (s *server) newAppHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}
			key     string
		)
		lang := s.requestLanguage(ctx)

		if uErr, ok := s.userError(err, lang); ok {
			code = uErr.code
			key = uErr.key
			if uErr.fields != nil {
				message = uErr.fields
			} else {
				message = s.deps.Dict.Lookup(lang, uErr.key)
			}
		} else if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			if herr.Internal != nil {
				if internal, ok := herr.Internal.(*echo.HTTPError); ok {
					herr = internal
				}
			}
			code = herr.Code
			message = herr.Message
			if code == http.StatusNotFound {
				key = "notFound"
			} else {
				key = "serverError"
			}
		} else { // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			key = "serverError"

			args := []interface{}{errors.Wrap(err, msg)}
			if cl, ok := getClient(ctx); ok {
				if usr, ok := cl.session.Current(ctx.Request().Context()); ok {
					args = append(args, usr)
				}
			}
			s.deps.Logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				s.signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			err = ctx.NoContent(code)
		case wantsJSON(ctx):
			err = ctx.JSON(code, message)
		default:
			err = s.renderError(ctx, code, key)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func (s *server) renderError(ctx echo.Context, code int, key string) error {
	if _, ok := getClient(ctx); !ok {
		return ctx.String(code, s.deps.Dict.Lookup(s.requestLanguage(ctx), key))
	}
	return s.render(ctx, code, "error", &pageData{TitleKey: key})
}
