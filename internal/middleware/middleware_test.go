package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func actorRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{Actor("X-Actor-ID", "X-Actor-Role")}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, actor)
	})
	r.GET("/students/:id", chain...)
	return r
}

func TestActorRequiresHeaders(t *testing.T) {
	r := actorRouter()

	w := performRequest(r, http.MethodGet, "/students/stu-1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(r, http.MethodGet, "/students/stu-1", map[string]string{"X-Actor-ID": "u1", "X-Actor-Role": "janitor"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(r, http.MethodGet, "/students/stu-1", map[string]string{"X-Actor-ID": " u1 ", "X-Actor-Role": "lecturer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"LECTURER"}`, w.Body.String())
}

func TestRBAC(t *testing.T) {
	r := actorRouter(RBAC(string(models.RoleAdmin), RoleSelf))

	cases := []struct {
		name   string
		id     string
		role   string
		status int
	}{
		{name: "admin", id: "admin-1", role: "ADMIN", status: http.StatusOK},
		{name: "student reading own record", id: "stu-1", role: "STUDENT", status: http.StatusOK},
		{name: "student reading another record", id: "stu-2", role: "STUDENT", status: http.StatusForbidden},
		{name: "lecturer with matching id is not self", id: "stu-1", role: "LECTURER", status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(r, http.MethodGet, "/students/stu-1", map[string]string{"X-Actor-ID": tc.id, "X-Actor-Role": tc.role})
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRBACWithoutActor(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleFinance), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditLogsSuccessfulRequests(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Actor("X-Actor-ID", "X-Actor-Role"))
	r.PUT("/students/:id/level", Audit(logger, "student.level.update", "student"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/fail/:id", Audit(logger, "fail", "student"), func(c *gin.Context) { c.Status(http.StatusConflict) })

	headers := map[string]string{"X-Actor-ID": "aa-1", "X-Actor-Role": "ACADEMIC_AFFAIRS"}
	performRequest(r, http.MethodPut, "/students/stu-1/level", headers)
	performRequest(r, http.MethodPut, "/fail/stu-1", headers)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "student.level.update", fields["action"])
	assert.Equal(t, "stu-1", fields["resource_id"])
	assert.Equal(t, "aa-1", fields["actor_id"])
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	performRequest(r, http.MethodGet, "/students/stu-1", nil)
	performRequest(r, http.MethodGet, "/students/stu-2", nil)

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestResponseMetaTracksCacheHit(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		meta = ExtractMeta(c)
	})
	r.Use(WithResponseMeta())
	r.GET("/courses", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.Status(http.StatusOK)
	})

	performRequest(r, http.MethodGet, "/courses", nil)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
