package echoweb_test

import (
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	echoweb "github.com/trezcool/tadesk/apps/web/echo"
	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
	"github.com/trezcool/tadesk/services/email"
	"github.com/trezcool/tadesk/storage/kv/inmem"
	"github.com/trezcool/tadesk/storage/userstore"
	"github.com/trezcool/tadesk/tests"
)

const (
	durableCookie = "tadesk_local"
	tabCookie     = "tadesk_tab"
)

type app struct {
	server  echoweb.Server
	dict    *i18n.Dictionary
	usrSvc  *user.Service
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) app {
	t.Helper()
	return setupWithStorage(t, inmemkv.New())
}

// setupWithStorage builds the server over the given shared storage.
func setupWithStorage(t *testing.T, storage core.Storage) app {
	t.Helper()
	conf := &core.Config{
		AppName:          "TA Desk",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret-key",
		DefaultLanguage:  "zh-CN",
		DefaultFromEmail: mail.Address{Name: "TA Desk", Address: "noreply@tadesk.local"},
		Session:          core.SessionConfig{RememberFor: 24 * time.Hour},
		Web:              core.WebConfig{FlashDismissAfter: 5 * time.Second},
	}
	logger := testutil.NewLogger(t)
	core.ParseEmailTemplates(logger, true)

	dict := testutil.LoadDictionary(t)
	validate, translators := testutil.NewValidator(t, dict)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(userstore.NewUserRepository(storage), mailSvc, dict)

	server := echoweb.NewServer(echoweb.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		Validate:    validate,
		Translators: translators,
		Dict:        dict,
		CookieStore: echoweb.NewCookieStore(conf),
	})
	t.Cleanup(func() { _ = server.Close() })

	return app{server: server, dict: dict, usrSvc: usrSvc, mailSvc: mailSvc}
}

// browser keeps the cookies between requests.
type browser struct {
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (a app) newBrowser() *browser {
	return &browser{handler: a.server, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, target, form)
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	wantCode     int
	wantLocation string
	wantBody     []string
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.wantLocation {
		t.Errorf("failed! location = %q; wantLocation %q", loc, tt.wantLocation)
	}
	for _, want := range tt.wantBody {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("failed! body misses %q:\n%s", want, rec.Body.String())
		}
	}
}

// text is how msg appears in a rendered page.
func text(msg string) string {
	return html.EscapeString(msg)
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantData []byte) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(wantData))
	}
}

func registerForm(email string) url.Values {
	return url.Values{
		"name":            {"Li Ming"},
		"email":           {email},
		"password":        {"abcdefgh"},
		"passwordConfirm": {"abcdefgh"},
		"department":      {"cs"},
		"title":           {"Professor"},
		"agreeTerms":      {"true"},
	}
}
