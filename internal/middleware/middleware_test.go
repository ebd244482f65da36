package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/repository"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRBAC(t *testing.T) {
	viewer := &models.JWTClaims{UserID: "staff-9", Role: models.RoleViewer}
	r := gin.New()
	r.Use(JWT(stubValidator{claims: viewer}))
	r.GET("/requests", RequireRoles(ReadRoles...), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	r.POST("/requests", RequireRoles(WriteRoles...), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/requests", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/requests", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/requests", "Bearer bad").Code)

	w := perform(r, http.MethodGet, "/requests", "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-9", w.Body.String())

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPost, "/requests", "Bearer good").Code)
}

func TestStaticIdentityPassesRBAC(t *testing.T) {
	r := gin.New()
	r.Use(StaticIdentity(models.JWTClaims{UserID: "local", Role: models.RoleCoordinator}))
	r.POST("/requests", RequireRoles(WriteRoles...), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/requests", "").Code)
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireRoles(ReadRoles...), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/", "").Code)
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (o *recordingObserver) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/requests/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/requests/FOI-2024-001", "")
	perform(r, http.MethodGet, "/nowhere", "")

	assert.Equal(t, []string{"/requests/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMetaAndCacheHeader(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/reports", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/reports", "")
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	repo := repository.NewMemoryAuditRepository()
	r := gin.New()
	r.Use(StaticIdentity(models.JWTClaims{UserID: "staff-1", Role: models.RoleAnalyst}))
	r.GET("/exports/requests.csv", Audit(repo, nil, models.AuditActionRequestExport, "foi_request"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/fail", Audit(repo, nil, models.AuditActionRequestExport, "foi_request"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	perform(r, http.MethodGet, "/exports/requests.csv?status=Completed", "")
	perform(r, http.MethodGet, "/fail", "")

	logs, err := repo.List(context.Background(), models.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionRequestExport, logs[0].Action)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, "staff-1", *logs[0].UserID)
	assert.Contains(t, string(logs[0].NewValues), "status=Completed")
}
