package dto

import "github.com/noah-isme/foi-request-api/internal/models"

// CreateFOIRequest payload for registering a new FOI request.
type CreateFOIRequest struct {
	RequesterName          string             `json:"requester_name" validate:"required"`
	RequestType            models.RequestType `json:"request_type" validate:"required,request_type"`
	DateReceived           models.Date        `json:"date_received"`
	LegislationType        models.Legislation `json:"legislation_type" validate:"required,legislation"`
	AssignedTo             string             `json:"assigned_to"`
	Description            string             `json:"description" validate:"required"`
	ThirdPartyNotification bool               `json:"third_party_notification"`
}

// FOIRequestQuery mirrors supported listing filters.
type FOIRequestQuery struct {
	Statuses     []models.RequestStatus
	Legislations []models.Legislation
	Search       string
}

// Filter converts the query into a store filter.
func (q FOIRequestQuery) Filter() models.FOIRequestFilter {
	return models.FOIRequestFilter{
		Statuses:     q.Statuses,
		Legislations: q.Legislations,
		Search:       q.Search,
	}
}

// FOIRequestList is a filtered listing with the unfiltered total.
type FOIRequestList struct {
	Items []models.FOIRequest
	Total int
}
