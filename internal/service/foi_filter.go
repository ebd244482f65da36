package service

import (
	"strings"

	"github.com/noah-isme/foi-request-api/internal/models"
)

// FilterRequests keeps the records matching every criterion, preserving order.
func FilterRequests(records []models.FOIRequest, filter models.FOIRequestFilter) []models.FOIRequest {
	statuses := make(map[models.RequestStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}
	legislations := make(map[models.Legislation]struct{}, len(filter.Legislations))
	for _, legislation := range filter.Legislations {
		legislations[legislation] = struct{}{}
	}
	term := strings.ToLower(filter.Search)

	result := make([]models.FOIRequest, 0, len(records))
	for _, record := range records {
		if len(statuses) > 0 {
			if _, ok := statuses[record.Status]; !ok {
				continue
			}
		}
		if len(legislations) > 0 {
			if _, ok := legislations[record.LegislationType]; !ok {
				continue
			}
		}
		if term != "" && !matchesSearch(record, term) {
			continue
		}
		result = append(result, record)
	}
	return result
}

func matchesSearch(record models.FOIRequest, term string) bool {
	return strings.Contains(strings.ToLower(record.RequesterName), term) ||
		strings.Contains(strings.ToLower(record.ID), term)
}
