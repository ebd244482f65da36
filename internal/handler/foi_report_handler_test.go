package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/middleware"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

type fakeReportService struct {
	summary *dto.ReportSummary
	urgent  []dto.UrgentRequest
	hit     bool
	err     error
}

func (f *fakeReportService) Summary(context.Context) (*dto.ReportSummary, bool, error) {
	return f.summary, f.hit, f.err
}

func (f *fakeReportService) Urgent(context.Context) ([]dto.UrgentRequest, bool, error) {
	return f.urgent, f.hit, f.err
}

func (f *fakeReportService) Dashboard(context.Context) (*dto.DashboardResponse, bool, error) {
	return &dto.DashboardResponse{Totals: dto.DashboardTotals{Total: len(f.urgent)}}, f.hit, f.err
}

func newReportRouter(svc foiReportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFOIReportHandler(svc)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/reports/summary", h.Summary)
	r.GET("/reports/urgent", h.Urgent)
	r.GET("/dashboard", h.Dashboard)
	return r
}

func TestFOIReportHandlerSummaryCacheMeta(t *testing.T) {
	r := newReportRouter(&fakeReportService{
		summary: &dto.ReportSummary{Total: 3, Timeline: dto.TimelineBuckets{OnTime: 1, AtRisk: 1, Overdue: 1}},
		hit:     true,
	})

	w, env := do(r, http.MethodGet, "/reports/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))
	assert.Equal(t, true, env.Meta["cache_hit"])

	var summary dto.ReportSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 3, summary.Timeline.Total())
}

func TestFOIReportHandlerUrgentCount(t *testing.T) {
	r := newReportRouter(&fakeReportService{urgent: []dto.UrgentRequest{{DaysRemaining: -8}, {DaysRemaining: 2}}})

	w, env := do(r, http.MethodGet, "/reports/urgent", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheHeader))
	assert.Equal(t, float64(2), env.Meta["count"])
}

func TestFOIReportHandlerPropagatesErrors(t *testing.T) {
	r := newReportRouter(&fakeReportService{err: appErrors.Clone(appErrors.ErrInternal, "store unavailable")})

	for _, path := range []string{"/reports/summary", "/reports/urgent", "/dashboard"} {
		w, env := do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		require.NotNil(t, env.Error, path)
	}
}
