package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/dbtest"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/repo"
	"github.com/Skotchmaster/storefront/services/auth/internal/service"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
)

type testEnv struct {
	e   *echo.Echo
	svc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc := &service.AuthService{
		Repo:          &repo.GormRepo{DB: dbtest.Open(t, models.All()...)},
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	e := echo.New()
	Register(e, &Deps{AuthHandler: &AuthHTTP{Svc: svc}, JWTSecret: svc.JWTSecret})
	return &testEnv{e: e, svc: svc}
}

func (env *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func (env *testEnv) login(t *testing.T, email, password string) (access, refresh *http.Cookie) {
	t.Helper()
	rec := env.do(http.MethodPost, "/login", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cks := cookiesByName(rec)
	require.NotNil(t, cks[jwthelp.AccessCookie])
	require.NotNil(t, cks[jwthelp.RefreshCookie])
	return cks[jwthelp.AccessCookie], cks[jwthelp.RefreshCookie]
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/register", `{"email":"ann@example.com","password":"Secret123","full_name":"Ann"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/register", `{"email":"ann@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/register", `{"email":"bad","password":"Secret123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/login", `{"email":"ann@example.com","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access, _ := env.login(t, "ann@example.com", "Secret123")

	rec = env.do(http.MethodGet, "/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	var me transport.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ann@example.com", me.Email)
	assert.Equal(t, "Ann", me.Profile.FullName)

	rec = env.do(http.MethodPatch, "/me", `{"phone":"+7 (900) 000-00-00"}`, access)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPatch, "/me", `{"phone":"letters"}`, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), "bo@example.com", "Secret123", "")
	require.NoError(t, err)
	_, refresh := env.login(t, "bo@example.com", "Secret123")

	rec := env.do(http.MethodPost, "/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	var body transport.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEqual(t, refresh.Value, body.RefreshToken)

	rec = env.do(http.MethodPost, "/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rotated := &http.Cookie{Name: jwthelp.RefreshCookie, Value: body.RefreshToken}
	rec = env.do(http.MethodPost, "/logout", "", rotated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, cookiesByName(rec)[jwthelp.RefreshCookie].MaxAge)

	rec = env.do(http.MethodPost, "/refresh", "", rotated)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_RefreshesExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), "cy@example.com", "Secret123", "")
	require.NoError(t, err)
	_, refresh := env.login(t, "cy@example.com", "Secret123")

	rec := env.do(http.MethodGet, "/me", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, cookiesByName(rec)[jwthelp.AccessCookie].Value)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.Register(ctx, "user@example.com", "Secret123", "")
	require.NoError(t, err)
	_, err = env.svc.CreateAdmin(ctx, "admin@example.com", "Secret123")
	require.NoError(t, err)

	userAccess, _ := env.login(t, "user@example.com", "Secret123")
	rec := env.do(http.MethodGet, "/admin/stats", "", userAccess)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminAccess, _ := env.login(t, "admin@example.com", "Secret123")
	rec = env.do(http.MethodGet, "/admin/stats", "", adminAccess)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats transport.UserStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, transport.UserStats{TotalUsers: 2, Admins: 1}, stats)
}
