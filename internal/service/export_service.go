package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
	"github.com/noah-isme/foi-request-api/pkg/export"
	"github.com/noah-isme/foi-request-api/pkg/storage"
)

// ExportColumns lists the exported request fields in column order.
var ExportColumns = []string{
	"id",
	"requester_name",
	"request_type",
	"date_received",
	"due_date",
	"status",
	"assigned_to",
	"legislation_type",
	"description",
	"third_party_notification",
	"fee_estimate",
	"extension_granted",
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, path string) (string, storage.DownloadToken, error)
	Verify(token string) (storage.DownloadToken, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Store   foiRequestLister
	Storage fileStorage
	Signer  downloadSigner
	Config  ExportConfig
	Logger  *zap.Logger
	Clock   func() time.Time
	CSV     datasetRenderer
	PDF     datasetRenderer
}

// ExportService turns request listings into CSV or PDF files.
type ExportService struct {
	store     foiRequestLister
	storage   fileStorage
	signer    downloadSigner
	cfg       ExportConfig
	logger    *zap.Logger
	now       func() time.Time
	csv       *export.CSVExporter
	renderers map[models.ExportFormat]datasetRenderer
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	csv := export.NewCSVExporter()
	renderers := map[models.ExportFormat]datasetRenderer{
		models.ExportFormatCSV: csv,
		models.ExportFormatPDF: export.NewPDFExporter(),
	}
	if params.CSV != nil {
		renderers[models.ExportFormatCSV] = params.CSV
	}
	if params.PDF != nil {
		renderers[models.ExportFormatPDF] = params.PDF
	}
	return &ExportService{
		store:     params.Store,
		storage:   params.Storage,
		signer:    params.Signer,
		cfg:       cfg,
		logger:    logger,
		now:       clock,
		csv:       csv,
		renderers: renderers,
	}
}

// CSVFilename names a download after the export date, e.g. foi_requests_20241127.csv.
func CSVFilename(now time.Time) string {
	return ExportFilename(now, models.ExportFormatCSV)
}

// ExportFilename names an export file after its date and format.
func ExportFilename(now time.Time, format models.ExportFormat) string {
	return fmt.Sprintf("foi_requests_%s.%s", now.Format("20060102"), format)
}

// RequestDataset builds one row per request under ExportColumns.
func RequestDataset(records []models.FOIRequest, title string) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"id":                       r.ID,
			"requester_name":           r.RequesterName,
			"request_type":             string(r.RequestType),
			"date_received":            r.DateReceived.String(),
			"due_date":                 r.DueDate.String(),
			"status":                   string(r.Status),
			"assigned_to":              r.AssignedTo,
			"legislation_type":         string(r.LegislationType),
			"description":              r.Description,
			"third_party_notification": strconv.FormatBool(r.ThirdPartyNotification),
			"fee_estimate":             strconv.Itoa(r.FeeEstimate),
			"extension_granted":        strconv.FormatBool(r.ExtensionGranted),
		})
	}
	return export.Dataset{Title: title, Headers: ExportColumns, Rows: rows}
}

// WriteCSV streams the filtered requests as CSV and returns the download filename.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, filter models.FOIRequestFilter) (string, error) {
	records, err := s.filtered(ctx, filter)
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.csv.Write(w, RequestDataset(records, "")); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write csv export")
	}
	return CSVFilename(now), nil
}

// Render returns the filtered requests encoded in the given format.
func (s *ExportService) Render(ctx context.Context, format models.ExportFormat, filter models.FOIRequestFilter) ([]byte, error) {
	records, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dataset := RequestDataset(records, fmt.Sprintf("FOI Requests %s", now.Format(models.DateLayout)))
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unsupported export format %q", format)
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	return payload, nil
}

// Generate renders the job's export, stores it and signs a download link.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	payload, err := s.Render(ctx, job.Format, job.Filter)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("foi_requests_%s_%s.%s", s.now().Format("20060102_150405"), shortID(job.ID), job.Format)
	relPath, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}
	token, meta, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign export: %w", err)
	}
	s.logger.Info("export generated", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Format:       job.Format,
		ExpiresAt:    meta.ExpiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (storage.DownloadToken, error) {
	return s.signer.Verify(token)
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than the configured result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// ResultTTL reports how long generated files are kept.
func (s *ExportService) ResultTTL() time.Duration {
	return s.cfg.ResultTTL
}

func (s *ExportService) filtered(ctx context.Context, filter models.FOIRequestFilter) ([]models.FOIRequest, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load foi requests")
	}
	return FilterRequests(records, filter), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
