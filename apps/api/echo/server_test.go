package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/testutil"
)

func TestHome(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.serve(req, rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Banat Hawaa School API!", rec.Body.String())
}

func TestRoutes_Methods(t *testing.T) {
	app := setup(t)
	notAllowed := marchallObj(t, httpErr{Error: "Method Not Allowed"})

	tests := []httpTest{
		{name: "GET delete-message", method: http.MethodGet, path: "/api/admin/delete-message", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "POST admin-delete-user", method: http.MethodPost, path: "/api/admin-delete-user", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "GET delete-user", method: http.MethodGet, path: "/api/delete-user", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "PUT invite-student", method: http.MethodPut, path: "/api/invite-student", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "DELETE invite-student-temp-fix", method: http.MethodDelete, path: "/api/invite-student-temp-fix", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "GET setup-password", method: http.MethodGet, path: "/api/setup-password", wantCode: http.StatusMethodNotAllowed, wantData: notAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
	}
	runHTTPTests(t, app, tests)
}

func TestRoutes_Preflight(t *testing.T) {
	app := setup(t)

	for _, path := range []string{
		"/api/admin/delete-message",
		"/api/admin-delete-user",
		"/api/delete-user",
		"/api/invite-student",
		"/api/invite-student-temp-fix",
		"/api/setup-password",
	} {
		req, rec := newRequest(http.MethodOptions, path)
		req.Header.Set(echo.HeaderOrigin, "https://school.test")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		app.serve(req, rec)

		if rec.Code != http.StatusOK {
			t.Errorf("failed! %s: code = %v; wantCode %v", path, rec.Code, http.StatusOK)
		}
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), "authorization")
	}
}

func TestRoutes_PreflightRestrictedOrigins(t *testing.T) {
	app := setup(t, func(conf *core.Config) {
		conf.Server.AllowedOrigins = []string{"https://school.test"}
	})

	for origin, want := range map[string]string{"https://school.test": "https://school.test", "https://evil.test": ""} {
		req, rec := newRequest(http.MethodOptions, "/api/setup-password")
		req.Header.Set(echo.HeaderOrigin, origin)
		app.serve(req, rec)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	}
}

func TestRoutes_MissingConfiguration(t *testing.T) {
	app := setup(t, func(conf *core.Config) {
		conf.Supabase.ServiceKey = ""
	})
	missing := marchallObj(t, httpErr{Error: "missing configuration: SUPABASE_SERVICE_ROLE_KEY"})

	tests := []httpTest{
		{name: "setup-password", method: http.MethodPost, path: "/api/setup-password", wantCode: http.StatusInternalServerError, wantData: missing},
		{name: "delete-user", method: http.MethodPost, path: "/api/delete-user", wantCode: http.StatusInternalServerError, wantData: missing},
		{name: "admin-delete-user", method: http.MethodDelete, path: "/api/admin-delete-user", wantCode: http.StatusInternalServerError, wantData: missing},
		{name: "preflight still answers", method: http.MethodOptions, path: "/api/admin-delete-user", wantCode: http.StatusOK},
	}
	runHTTPTests(t, app, tests)
}

func TestRoutes_MissingStores(t *testing.T) {
	app := setup(t, func(conf *core.Config) {
		conf.TestMode = false
	})
	missing := marchallObj(t, httpErr{Error: "missing configuration: DATABASE_URL, STORAGE_ENDPOINT, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY, STORAGE_BUCKET"})

	tests := []httpTest{
		{name: "setup-password", method: http.MethodPost, path: "/api/setup-password", wantCode: http.StatusInternalServerError, wantData: missing},
		{name: "admin-delete-user", method: http.MethodDelete, path: "/api/admin-delete-user", wantCode: http.StatusInternalServerError, wantData: missing},
	}
	runHTTPTests(t, app, tests)
}

func TestRoutes_Auth(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Amina Benali", "amina@test.test", "student")
	teacher := app.createUser(t, "Khadija Alaoui", "khadija@test.test", "teacher")
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "no token", method: http.MethodDelete, path: "/api/admin-delete-user", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "bad token", method: http.MethodDelete, path: "/api/admin-delete-user", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodPost, path: "/api/delete-user", token: expiredToken(t, student), wantCode: http.StatusUnauthorized},
		{name: "student", method: http.MethodDelete, path: "/api/admin-delete-user", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "teacher", method: http.MethodPost, path: "/api/invite-student", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "no profile", method: http.MethodDelete, path: "/api/admin/delete-message", token: getToken(t, orphanProfile()), wantCode: http.StatusForbidden, wantData: forbidden},
	}
	runHTTPTests(t, app, tests)
}

// orphanProfile is a user holding a valid token but no Profile row.
func orphanProfile() user.Profile {
	return user.Profile{ID: uuid.NewString(), Email: "orphan@test.test"}
}

func expiredToken(t *testing.T, prof user.Profile) string {
	token, err := GenerateToken(NewClaims(prof, -time.Minute), testutil.JWTSecret)
	if err != nil {
		t.Fatalf("expiredToken() failed: %v", err)
	}
	return token
}
