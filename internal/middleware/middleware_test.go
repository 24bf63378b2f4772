package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, id)
	}
	return u, nil
}

func testUser(id string, role models.Role, active bool) *models.User {
	u := &models.User{Role: role, IsActive: active}
	u.ID = id
	return u
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := utils.GenerateAccessToken(u, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func newRouter(users fakeUsers, roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret, users, zap.NewNop()))
	if len(roles) > 0 {
		r.Use(RoleAuthMiddleware(roles...))
	}
	r.GET("/x", func(c *gin.Context) {
		id, _ := GetUserIDFromContext(c)
		role, _ := GetUserRoleFromContext(c)
		c.String(http.StatusOK, id+":"+string(role))
	})
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	active := testUser("u1", models.RoleClinician, true)
	inactive := testUser("u2", models.RoleAdmin, false)
	users := fakeUsers{"u1": active, "u2": inactive}
	r := newRouter(users)

	w := do(r, token(t, active))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1:clinician", w.Body.String())

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"deactivated user", token(t, inactive), http.StatusUnauthorized},
		{"unknown user", token(t, testUser("ghost", models.RoleAdmin, true)), http.StatusUnauthorized},
		{"lookup failure", token(t, testUser("broken", models.RoleAdmin, true)), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, do(r, tt.header).Code)
		})
	}
}

func TestAuthMiddleware_RoleFromStore(t *testing.T) {
	stored := testUser("u1", models.RoleViewer, true)
	claimed := testUser("u1", models.RoleAdmin, true)
	r := newRouter(fakeUsers{"u1": stored}, models.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, do(r, token(t, claimed)).Code)
}

func TestRoleAuthMiddleware(t *testing.T) {
	viewer := testUser("v", models.RoleViewer, true)
	clinician := testUser("c", models.RoleClinician, true)
	r := newRouter(fakeUsers{"v": viewer, "c": clinician}, models.RoleAdmin, models.RoleClinician)

	assert.Equal(t, http.StatusForbidden, do(r, token(t, viewer)).Code)
	assert.Equal(t, http.StatusOK, do(r, token(t, clinician)).Code)
}

func TestRoleAuthMiddleware_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.Use(RoleAuthMiddleware(models.RoleAdmin))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusInternalServerError, do(r, "").Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, "")
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/x", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
