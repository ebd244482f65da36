package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/middleware"
	"github.com/noah-isme/foi-request-api/pkg/response"
)

type foiReportService interface {
	Summary(ctx context.Context) (*dto.ReportSummary, bool, error)
	Urgent(ctx context.Context) ([]dto.UrgentRequest, bool, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, bool, error)
}

// FOIReportHandler serves aggregate views over the request register.
type FOIReportHandler struct {
	service foiReportService
}

// NewFOIReportHandler constructs the handler.
func NewFOIReportHandler(service foiReportService) *FOIReportHandler {
	return &FOIReportHandler{service: service}
}

// Summary godoc
// @Summary Request counts and deadline buckets
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/summary [get]
func (h *FOIReportHandler) Summary(c *gin.Context) {
	summary, hit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, summary, responseMeta(c))
}

// Urgent godoc
// @Summary Open requests due within five days or overdue
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/urgent [get]
func (h *FOIReportHandler) Urgent(c *gin.Context) {
	urgent, hit, err := h.service.Urgent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := responseMeta(c)
	meta["count"] = len(urgent)
	response.OK(c, urgent, meta)
}

// Dashboard godoc
// @Summary Dashboard overview
// @Description Headline totals, urgent list and the five most recently received requests.
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *FOIReportHandler) Dashboard(c *gin.Context) {
	dashboard, hit, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, dashboard, responseMeta(c))
}
