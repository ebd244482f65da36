package service

import (
	"sort"
	"time"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
)

// RecentRequestsLimit caps the recent list on the dashboard.
const RecentRequestsLimit = 5

// CountByStatus tallies records per status. Only statuses that occur are present.
func CountByStatus(records []models.FOIRequest) map[models.RequestStatus]int {
	counts := make(map[models.RequestStatus]int)
	for _, record := range records {
		counts[record.Status]++
	}
	return counts
}

// CountByType tallies records per request type.
func CountByType(records []models.FOIRequest) map[models.RequestType]int {
	counts := make(map[models.RequestType]int)
	for _, record := range records {
		counts[record.RequestType]++
	}
	return counts
}

// CountByLegislation tallies records per statute.
func CountByLegislation(records []models.FOIRequest) map[models.Legislation]int {
	counts := make(map[models.Legislation]int)
	for _, record := range records {
		counts[record.LegislationType]++
	}
	return counts
}

// ClassifyTimeline places every record in exactly one deadline bucket.
func ClassifyTimeline(records []models.FOIRequest, now time.Time) dto.TimelineBuckets {
	var buckets dto.TimelineBuckets
	for _, record := range records {
		if record.Status == models.RequestStatusCompleted {
			buckets.OnTime++
			continue
		}
		days := DaysRemaining(record.DueDate, now)
		switch {
		case days < 0:
			buckets.Overdue++
		case days <= AtRiskThresholdDays:
			buckets.AtRisk++
		default:
			buckets.OnTime++
		}
	}
	return buckets
}

// UrgentRequests lists open records due within the at-risk threshold, overdue ones
// included, ordered by days remaining. Ties keep store order.
func UrgentRequests(records []models.FOIRequest, now time.Time) []dto.UrgentRequest {
	urgent := make([]dto.UrgentRequest, 0)
	for _, record := range records {
		if record.Status == models.RequestStatusCompleted {
			continue
		}
		days := DaysRemaining(record.DueDate, now)
		if days <= AtRiskThresholdDays {
			urgent = append(urgent, dto.UrgentRequest{Request: record, DaysRemaining: days})
		}
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].DaysRemaining < urgent[j].DaysRemaining
	})
	return urgent
}

// RecentRequests returns up to limit records, newest date received first.
func RecentRequests(records []models.FOIRequest, limit int) []models.FOIRequest {
	recent := make([]models.FOIRequest, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].DateReceived.After(recent[j].DateReceived)
	})
	if limit >= 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

// SummarizeDashboard computes the headline counters. Overdue counts open records past due.
func SummarizeDashboard(records []models.FOIRequest, now time.Time) dto.DashboardTotals {
	totals := dto.DashboardTotals{Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.RequestStatusPendingReview:
			totals.PendingReview++
		case models.RequestStatusInProgress:
			totals.InProgress++
		case models.RequestStatusCompleted:
			totals.Completed++
		}
		if record.Status != models.RequestStatusCompleted && DaysRemaining(record.DueDate, now) < 0 {
			totals.Overdue++
		}
	}
	return totals
}
