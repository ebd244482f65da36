package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/repository"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

// reportNow sits between the seeded due dates: FOI-2024-003 is overdue,
// FOI-2024-001 is due in 4 days and FOI-2024-002 in 18.
var reportNow = time.Date(2024, 11, 27, 10, 0, 0, 0, time.UTC)

func TestCountsSumToTotal(t *testing.T) {
	records := SampleFOIRequests()

	byStatus := CountByStatus(records)
	assert.Equal(t, 2, byStatus[models.RequestStatusInProgress])
	assert.Equal(t, 1, byStatus[models.RequestStatusPendingReview])

	byLegislation := CountByLegislation(records)
	assert.Equal(t, map[models.Legislation]int{models.LegislationPHIPA: 2, models.LegislationFIPPA: 1}, byLegislation)

	byType := CountByType(records)
	sum := 0
	for _, n := range byType {
		sum += n
	}
	assert.Equal(t, len(records), sum)
}

func TestClassifyTimeline(t *testing.T) {
	records := SampleFOIRequests()

	buckets := ClassifyTimeline(records, reportNow)
	assert.Equal(t, dto.TimelineBuckets{OnTime: 1, AtRisk: 1, Overdue: 1}, buckets)
	assert.Equal(t, len(records), buckets.Total())

	records[2].Status = models.RequestStatusCompleted
	buckets = ClassifyTimeline(records, reportNow)
	assert.Equal(t, dto.TimelineBuckets{OnTime: 2, AtRisk: 1}, buckets)
}

func TestUrgentRequestsOrderedByDaysRemaining(t *testing.T) {
	records := SampleFOIRequests()

	urgent := UrgentRequests(records, reportNow)
	require.Len(t, urgent, 2)
	assert.Equal(t, "FOI-2024-003", urgent[0].Request.ID)
	assert.Equal(t, -8, urgent[0].DaysRemaining)
	assert.Equal(t, "FOI-2024-001", urgent[1].Request.ID)
	assert.Equal(t, 4, urgent[1].DaysRemaining)
}

func TestUrgentRequestsSkipsCompletedAndKeepsTieOrder(t *testing.T) {
	due := models.MustParseDate("2024-11-30")
	records := []models.FOIRequest{
		{ID: "A", Status: models.RequestStatusInProgress, DueDate: due},
		{ID: "B", Status: models.RequestStatusCompleted, DueDate: due},
		{ID: "C", Status: models.RequestStatusPendingReview, DueDate: due},
	}

	urgent := UrgentRequests(records, reportNow)
	got := make([]string, 0, len(urgent))
	for _, item := range urgent {
		got = append(got, item.Request.ID)
	}
	if diff := cmp.Diff([]string{"A", "C"}, got); diff != "" {
		t.Fatalf("unexpected urgent list (-want +got):\n%s", diff)
	}
}

func TestRecentRequestsNewestFirst(t *testing.T) {
	recent := RecentRequests(SampleFOIRequests(), 2)
	if diff := cmp.Diff([]string{"FOI-2024-002", "FOI-2024-001"}, ids(recent)); diff != "" {
		t.Fatalf("unexpected recent list (-want +got):\n%s", diff)
	}
}

func TestSummarizeDashboard(t *testing.T) {
	totals := SummarizeDashboard(SampleFOIRequests(), reportNow)
	assert.Equal(t, dto.DashboardTotals{Total: 3, PendingReview: 1, InProgress: 2, Overdue: 1}, totals)
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(context.Context, string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func TestFOIReportServiceCachesPerDay(t *testing.T) {
	store := repository.NewMemoryFOIRequestRepository()
	for _, record := range SampleFOIRequests() {
		record := record
		require.NoError(t, store.Insert(context.Background(), &record))
	}
	cacheRepo := &memoryCacheRepo{entries: make(map[string][]byte)}
	svc := NewFOIReportService(FOIReportServiceParams{
		Store: store,
		Cache: NewCacheService(cacheRepo, nil, time.Minute, nil, true),
		Clock: func() time.Time { return reportNow },
	})
	ctx := context.Background()

	summary, hit, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, summary.Total)
	assert.Contains(t, cacheRepo.entries, "foi:report:summary:2024-11-27")

	cached, hit, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, summary.Timeline, cached.Timeline)
	assert.Equal(t, summary.ByStatus, cached.ByStatus)

	dashboard, hit, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, dashboard.Totals.Overdue)
	assert.Len(t, dashboard.Recent, 3)
	require.Len(t, dashboard.Urgent, 2)

	urgent, _, err := svc.Urgent(ctx)
	require.NoError(t, err)
	assert.Len(t, urgent, 2)
}
