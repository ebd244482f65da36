package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/repository"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
	"github.com/noah-isme/foi-request-api/pkg/jobs"
	"github.com/noah-isme/foi-request-api/pkg/storage"
)

// ExportJobType tags export work on the background queue.
const ExportJobType = "foi_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
	ParseToken(token string) (storage.DownloadToken, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup() ([]string, error)
	ResultTTL() time.Duration
}

// ExportJobServiceConfig governs cleanup cadence.
type ExportJobServiceConfig struct {
	CleanupInterval time.Duration
	// Clock stamps job creation and completion; defaults to UTC wall time.
	Clock func() time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportJobService manages the lifecycle of asynchronous exports.
type ExportJobService struct {
	repo     exportJobStore
	queue    jobDispatcher
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ExportJobServiceConfig
	now      func() time.Time
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &ExportJobService{
		repo:     repo,
		queue:    queue,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      clock,
	}
}

// SetQueue attaches the dispatcher. The queue handler needs the service's worker,
// so the two are wired after construction.
func (s *ExportJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, records the job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.CreateExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	format, filter, err := validateExportRequest(req)
	if err != nil {
		return nil, err
	}
	job := &models.ExportJob{
		Format:    format,
		Filter:    filter,
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if s.queue == nil {
		err = errors.New("export queue not configured")
	} else {
		err = s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType})
	}
	if err != nil {
		s.markFailed(ctx, job.ID, format, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.metrics.ObserveExportJob(string(format), string(models.ExportStatusQueued))
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job progress to clients.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExportStatusResponse{ID: job.ID, Status: job.Status, Progress: job.Progress, ResultURL: job.ResultURL}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored export.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	meta, err := s.exporter.ParseToken(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.load(ctx, meta.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(meta.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(meta.Path),
		Format:    job.Format,
		ExpiresAt: meta.ExpiresAt,
	}, nil
}

// RunCleanup purges expired exports every CleanupInterval until ctx is done.
func (s *ExportJobService) RunCleanup(ctx context.Context) error {
	if s.cfg.CleanupInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.CleanupExpired(ctx)
		}
	}
}

// CleanupExpired deletes files and metadata of jobs finished longer than the result TTL ago.
func (s *ExportJobService) CleanupExpired(ctx context.Context) int {
	cutoff := s.now().Add(-s.exporter.ResultTTL())
	removed := 0
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return removed
		}
		for _, job := range expired {
			if path := s.resultPath(job); path != "" {
				if err := s.exporter.Delete(path); err != nil && !errors.Is(err, os.ErrNotExist) {
					s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
				}
			}
			if err := s.repo.Delete(ctx, job.ID); err != nil {
				s.logger.Warn("export cleanup forget failed", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			removed++
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.exporter.Cleanup(); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	}
	return removed
}

// Handle processes one queued export.
func (s *ExportJobService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := s.exporter.Generate(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := s.now()
	noError := ""
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &result.URL,
		ErrorMessage: &noError,
		FinishedAt:   &now,
	}); err != nil {
		return err
	}
	s.metrics.ObserveExportJob(string(record.Format), string(models.ExportStatusFinished))
	return nil
}

// Abandon marks a job failed once the queue stops retrying it.
func (s *ExportJobService) Abandon(job jobs.Job, cause error) {
	ctx := context.Background()
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		s.logger.Warn("abandoned export job missing", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	s.markFailed(ctx, job.ID, record.Format, cause.Error())
}

func (s *ExportJobService) markFailed(ctx context.Context, id string, format models.ExportFormat, msg string) {
	failed := models.ExportStatusFailed
	progress := 100
	now := s.now()
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.ObserveExportJob(string(format), string(models.ExportStatusFailed))
}

func (s *ExportJobService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "export job %s not found", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

func (s *ExportJobService) resultPath(job models.ExportJob) string {
	if job.ResultURL == nil {
		return ""
	}
	parts := strings.Split(*job.ResultURL, "/")
	meta, err := s.exporter.ParseToken(parts[len(parts)-1])
	if err != nil && !errors.Is(err, storage.ErrTokenExpired) {
		return ""
	}
	return meta.Path
}

func validateExportRequest(req dto.CreateExportRequest) (models.ExportFormat, models.FOIRequestFilter, error) {
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if format == "" {
		format = models.ExportFormatCSV
	}
	if !format.Valid() {
		return "", models.FOIRequestFilter{}, appErrors.Clonef(appErrors.ErrValidation, "unsupported export format %q", req.Format)
	}
	for _, status := range req.Statuses {
		if !status.Valid() {
			return "", models.FOIRequestFilter{}, appErrors.Clonef(appErrors.ErrValidation, "unknown status %q", status)
		}
	}
	for _, legislation := range req.Legislations {
		if !legislation.Valid() {
			return "", models.FOIRequestFilter{}, appErrors.Clonef(appErrors.ErrValidation, "unknown legislation %q", legislation)
		}
	}
	return format, models.FOIRequestFilter{
		Statuses:     req.Statuses,
		Legislations: req.Legislations,
		Search:       req.Search,
	}, nil
}
