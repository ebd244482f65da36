package dto

import (
	"time"

	"github.com/noah-isme/foi-request-api/internal/models"
)

// TimelineBuckets classifies every request by deadline pressure.
type TimelineBuckets struct {
	OnTime  int `json:"on_time"`
	AtRisk  int `json:"at_risk"`
	Overdue int `json:"overdue"`
}

// Total returns the number of classified requests.
func (b TimelineBuckets) Total() int {
	return b.OnTime + b.AtRisk + b.Overdue
}

// UrgentRequest pairs a request with its remaining days.
type UrgentRequest struct {
	Request       models.FOIRequest `json:"request"`
	DaysRemaining int               `json:"days_remaining"`
}

// ReportSummary aggregates request counts for the analytics view.
type ReportSummary struct {
	Total         int                          `json:"total"`
	ByStatus      map[models.RequestStatus]int `json:"by_status"`
	ByType        map[models.RequestType]int   `json:"by_type"`
	ByLegislation map[models.Legislation]int   `json:"by_legislation"`
	Timeline      TimelineBuckets              `json:"timeline"`
	GeneratedAt   time.Time                    `json:"generated_at"`
}

// DashboardTotals are the headline counters of the dashboard.
type DashboardTotals struct {
	Total         int `json:"total"`
	PendingReview int `json:"pending_review"`
	InProgress    int `json:"in_progress"`
	Completed     int `json:"completed"`
	Overdue       int `json:"overdue"`
}

// DashboardResponse composes the dashboard overview.
type DashboardResponse struct {
	Totals      DashboardTotals     `json:"totals"`
	Urgent      []UrgentRequest     `json:"urgent"`
	Recent      []models.FOIRequest `json:"recent"`
	GeneratedAt time.Time           `json:"generated_at"`
}
