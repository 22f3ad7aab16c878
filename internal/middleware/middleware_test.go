package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, s.err
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := gin.New()
	v := stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	r.GET("/me", JWT(v), func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UserID)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer bad").Code)

	w := serve(r, http.MethodGet, "/me", "bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestRBAC(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		userID string
		path   string
		want   int
	}{
		{"admin allowed", models.RoleAdmin, "a1", "/students/s9/attendance", http.StatusOK},
		{"faculty allowed", models.RoleFaculty, "f1", "/students/s9/attendance", http.StatusOK},
		{"student self", models.RoleStudent, "s9", "/students/s9/attendance", http.StatusOK},
		{"student other", models.RoleStudent, "s1", "/students/s9/attendance", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			v := stubValidator{claims: &models.JWTClaims{UserID: tc.userID, Role: tc.role}}
			r.GET("/students/:id/attendance", JWT(v), RBAC(string(models.RoleAdmin), string(models.RoleFaculty), Self), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			assert.Equal(t, tc.want, serve(r, http.MethodGet, tc.path, "Bearer good").Code)
		})
	}

	r := gin.New()
	r.GET("/open", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/open", "").Code)
}

type recordingObserver struct {
	path   string
	status int
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path, o.status = path, status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	serve(r, http.MethodGet, "/courses/12", "")
	assert.Equal(t, "/courses/:id", obs.path)
	assert.Equal(t, http.StatusTeapot, obs.status)

	serve(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, "unmatched", obs.path)
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func TestAuditOnlyOnSuccess(t *testing.T) {
	repo := &recordingAudit{err: errors.New("db down")}
	v := stubValidator{claims: &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}}
	r := gin.New()
	r.POST("/courses/:id/attendance", JWT(v), Audit(repo, nil, models.AuditActionMarkAttendance, "attendance"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodPost, "/courses/5/attendance?fail=1", "Bearer good")
	assert.Empty(t, repo.logs)

	serve(r, http.MethodPost, "/courses/5/attendance", "Bearer good")
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "5", *repo.logs[0].ResourceID)
	assert.Equal(t, "f1", *repo.logs[0].UserID)
	assert.Equal(t, models.AuditActionMarkAttendance, repo.logs[0].Action)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/x", func(c *gin.Context) {
		SetMeta(c, "kind", "students")
		meta = Meta(c)
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/x", "")
	assert.Equal(t, "students", meta["kind"])
	assert.Contains(t, meta, processingTimeMs)
}
