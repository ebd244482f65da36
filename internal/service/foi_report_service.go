package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

type foiRequestLister interface {
	List(ctx context.Context) ([]models.FOIRequest, error)
}

// FOIReportServiceParams groups constructor dependencies.
type FOIReportServiceParams struct {
	Store    foiRequestLister
	Cache    *CacheService
	CacheTTL time.Duration
	Logger   *zap.Logger
	Clock    func() time.Time
}

// FOIReportService aggregates the request store into reports and the dashboard.
type FOIReportService struct {
	store    foiRequestLister
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewFOIReportService constructs the service with defaults.
func NewFOIReportService(params FOIReportServiceParams) *FOIReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &FOIReportService{store: params.Store, cache: params.Cache, cacheTTL: ttl, logger: logger, now: clock}
}

// Summary returns counts by status, type and legislation with timeline buckets.
// The boolean reports whether the payload came from cache.
func (s *FOIReportService) Summary(ctx context.Context) (*dto.ReportSummary, bool, error) {
	now := s.now()
	key := s.cacheKey("summary", now)
	var cached dto.ReportSummary
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	summary := &dto.ReportSummary{
		Total:         len(records),
		ByStatus:      CountByStatus(records),
		ByType:        CountByType(records),
		ByLegislation: CountByLegislation(records),
		Timeline:      ClassifyTimeline(records, now),
		GeneratedAt:   now,
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Urgent returns open requests that are overdue or due within the at-risk threshold.
func (s *FOIReportService) Urgent(ctx context.Context) ([]dto.UrgentRequest, bool, error) {
	now := s.now()
	key := s.cacheKey("urgent", now)
	var cached []dto.UrgentRequest
	if s.tryCache(ctx, key, &cached) {
		return cached, true, nil
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	urgent := UrgentRequests(records, now)
	s.persistCache(ctx, key, urgent)
	return urgent, false, nil
}

// Dashboard composes totals, the urgent list and the most recently received requests.
func (s *FOIReportService) Dashboard(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	now := s.now()
	key := s.cacheKey("dashboard", now)
	var cached dto.DashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	dashboard := &dto.DashboardResponse{
		Totals:      SummarizeDashboard(records, now),
		Urgent:      UrgentRequests(records, now),
		Recent:      RecentRequests(records, RecentRequestsLimit),
		GeneratedAt: now,
	}
	s.persistCache(ctx, key, dashboard)
	return dashboard, false, nil
}

func (s *FOIReportService) load(ctx context.Context) ([]models.FOIRequest, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load foi requests")
	}
	return records, nil
}

// cacheKey embeds the calendar date because day counts roll over at midnight.
func (s *FOIReportService) cacheKey(kind string, now time.Time) string {
	return fmt.Sprintf("foi:report:%s:%s", kind, models.DateOf(now))
}

func (s *FOIReportService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *FOIReportService) persistCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
