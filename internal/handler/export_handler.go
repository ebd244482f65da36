package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/service"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
	"github.com/noah-isme/foi-request-api/pkg/response"
)

type csvWriter interface {
	WriteCSV(ctx context.Context, w io.Writer, filter models.FOIRequestFilter) (string, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, req dto.CreateExportRequest, actorID string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler serves synchronous CSV downloads and asynchronous export jobs.
type ExportHandler struct {
	exporter csvWriter
	jobs     exportJobService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exporter csvWriter, jobs exportJobService) *ExportHandler {
	return &ExportHandler{exporter: exporter, jobs: jobs}
}

// CSV godoc
// @Summary Download requests as CSV
// @Description Accepts the same filters as the listing. The file is named foi_requests_YYYYMMDD.csv.
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Statuses"
// @Param legislation query string false "Legislations"
// @Param search query string false "Search term"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/requests.csv [get]
func (h *ExportHandler) CSV(c *gin.Context) {
	query, err := parseRequestQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var buf bytes.Buffer
	filename, err := h.exporter.WriteCSV(c.Request.Context(), &buf, query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "text/csv; charset=utf-8")
	_, _ = c.Writer.Write(buf.Bytes())
}

// Create godoc
// @Summary Schedule an export job
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "application/octet-stream"
	switch download.Format {
	case models.ExportFormatCSV:
		contentType = "text/csv; charset=utf-8"
	case models.ExportFormatPDF:
		contentType = "application/pdf"
	}
	response.Attachment(c, download.Filename, contentType)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
	}
}
