package portal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/web"
)

func newRequest(target string, viewer *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if viewer != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *viewer))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHome_Anonymous(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	c, rec := newRequest("/?message=hi", nil)
	require.NoError(t, h.Home(c))

	var page HomePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "index", page.Page)
	assert.Empty(t, page.Auth)
	assert.Equal(t, "hi", page.Message)
	assert.Equal(t, "/login", page.Links[0].Path)
}

func TestHome_Dashboard(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	c, rec := newRequest("/", &drSmith)
	require.NoError(t, h.Home(c))

	var page HomePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "dashboard", page.Page)
	assert.Equal(t, "dr_smith", page.Username)
	assert.Equal(t, auth.RoleClinician, page.Role)
}

func TestHome_UnknownIdentityStillRenders(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())
	ghost := auth.Principal{IdentityID: "2000000099", Role: auth.RolePatient}

	c, rec := newRequest("/", &ghost)
	require.NoError(t, h.Home(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMyInfo_Handler(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	c, rec := newRequest("/my-info", &alice)
	require.NoError(t, h.MyInfo(c))
	var page MyInfoPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "my-info", page.Page)
	assert.Equal(t, "Anders", page.Info.LastName)
}

func TestMyInfo_MissingRedirectsHome(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	c, rec := newRequest("/my-info", &bob)
	require.NoError(t, h.MyInfo(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, web.StatusNotFound, rec.Header().Get(web.StatusHeader))
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", u.Path)
	assert.Equal(t, "No medical info found", u.Query().Get("message"))
}

func TestPatientInfo_Handler(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	c, rec := newRequest("/patient-info?limit=2", &drSmith)
	require.NoError(t, h.PatientInfo(c))

	var page PatientInfoPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "patient-info", page.Page)
	assert.Len(t, page.Patients, 2)
	assert.Equal(t, 3, page.Paging.Total)
	assert.True(t, page.Paging.HasMore)
	assert.Equal(t, "/patient-info?offset=2&limit=2", page.Paging.Next)
}
