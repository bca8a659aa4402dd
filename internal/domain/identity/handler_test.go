package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/web"
)

type fakeSessions struct {
	created   map[string]string
	destroyed []string
}

func (f *fakeSessions) Create(_ context.Context, identityID string, _ auth.Role) (string, error) {
	token := "tok-" + identityID
	f.created[token] = identityID
	return token, nil
}

func (f *fakeSessions) Destroy(_ context.Context, cookie string) error {
	f.destroyed = append(f.destroyed, cookie)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return time.Hour }

func newTestHandler() (*Handler, *fakeSessions, *echo.Echo) {
	svc, _, _ := newTestService()
	sessions := &fakeSessions{created: make(map[string]string)}
	h := NewHandler(svc, sessions, CookieConfig{Name: "portal_session"}, zerolog.Nop())
	return h, sessions, echo.New()
}

func postForm(e *echo.Echo, path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_RegisterThenLogin(t *testing.T) {
	h, sessions, e := newTestHandler()
	form := url.Values{"username": {"alice"}, "password": {"pw"}}

	c, rec := postForm(e, "/register", form)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	c, rec = postForm(e, "/login", form)
	require.NoError(t, h.Login(c))
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, sessions.created, 1)

	cookie := rec.Result().Cookies()
	require.Len(t, cookie, 1)
	assert.Equal(t, "portal_session", cookie[0].Name)
	assert.True(t, cookie[0].HttpOnly)
	assert.Equal(t, 3600, cookie[0].MaxAge)
}

func TestHandler_RegisterDuplicate(t *testing.T) {
	h, _, e := newTestHandler()
	form := url.Values{"username": {"alice"}, "password": {"pw"}}

	c, _ := postForm(e, "/register", form)
	require.NoError(t, h.Register(c))

	c, rec := postForm(e, "/register", form)
	require.NoError(t, h.Register(c))

	assert.Equal(t, web.StatusUsernameTaken, rec.Header().Get(web.StatusHeader))
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/register", loc.Path)
	assert.Contains(t, loc.Query().Get("message"), "taken")
}

func TestHandler_LoginWrongPassword(t *testing.T) {
	h, sessions, e := newTestHandler()

	c, _ := postForm(e, "/register", url.Values{"username": {"alice"}, "password": {"pw"}})
	require.NoError(t, h.Register(c))

	c, rec := postForm(e, "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	require.NoError(t, h.Login(c))

	assert.Equal(t, web.StatusInvalidCredentials, rec.Header().Get(web.StatusHeader))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?message="))
	assert.Empty(t, sessions.created)
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandler_Logout(t *testing.T) {
	h, sessions, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "tok-1"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, []string{"tok-1"}, sessions.destroyed)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestHandler_Forms(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/register?message=This+username+is+taken", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.RegisterForm(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"page":"register","message":"This username is taken"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.LoginForm(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"page":"login"}`, rec.Body.String())
}
