package models

import "time"

// RequestType enumerates the categories of records a requester can ask for.
type RequestType string

const (
	RequestTypePersonalHealth   RequestType = "Personal Health Information"
	RequestTypeGeneralRecords   RequestType = "General Records"
	RequestTypeSecurityFootage  RequestType = "Security and Incident Footage"
	RequestTypeAuditLogs        RequestType = "Audit Logs"
	RequestTypeLegalInsurance   RequestType = "Legal/Insurance"
	RequestTypeCorrection       RequestType = "Correction Request"
	RequestTypeEstateOrDeceased RequestType = "Estate/Deceased Patient Access"
)

// RequestTypes lists every supported request type in display order.
var RequestTypes = []RequestType{
	RequestTypePersonalHealth,
	RequestTypeGeneralRecords,
	RequestTypeSecurityFootage,
	RequestTypeAuditLogs,
	RequestTypeLegalInsurance,
	RequestTypeCorrection,
	RequestTypeEstateOrDeceased,
}

// Valid reports whether t is one of the supported request types.
func (t RequestType) Valid() bool {
	for _, known := range RequestTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Legislation identifies the statute a request is filed under.
type Legislation string

const (
	LegislationPHIPA  Legislation = "PHIPA"
	LegislationFIPPA  Legislation = "FIPPA"
	LegislationMFIPPA Legislation = "MFIPPA"
)

// Legislations lists every supported statute.
var Legislations = []Legislation{LegislationPHIPA, LegislationFIPPA, LegislationMFIPPA}

// Valid reports whether l is a supported statute.
func (l Legislation) Valid() bool {
	switch l {
	case LegislationPHIPA, LegislationFIPPA, LegislationMFIPPA:
		return true
	default:
		return false
	}
}

// RequestStatus captures the lifecycle state of a request.
type RequestStatus string

const (
	RequestStatusPendingReview RequestStatus = "Pending Review"
	RequestStatusInProgress    RequestStatus = "In Progress"
	RequestStatusExtended      RequestStatus = "Extended"
	RequestStatusCompleted     RequestStatus = "Completed"

	// RequestStatusOverdue is accepted for filtering and reporting; no transition produces it.
	RequestStatusOverdue RequestStatus = "Overdue"
)

// RequestStatuses lists every status in display order.
var RequestStatuses = []RequestStatus{
	RequestStatusPendingReview,
	RequestStatusInProgress,
	RequestStatusCompleted,
	RequestStatusExtended,
	RequestStatusOverdue,
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	for _, known := range RequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultAssignee is stored when no staff member is assigned at creation.
const DefaultAssignee = "Unassigned"

// FOIRequest is a freedom of information request record.
type FOIRequest struct {
	ID                     string        `db:"id" json:"id"`
	RequesterName          string        `db:"requester_name" json:"requester_name"`
	RequestType            RequestType   `db:"request_type" json:"request_type"`
	DateReceived           Date          `db:"date_received" json:"date_received"`
	DueDate                Date          `db:"due_date" json:"due_date"`
	Status                 RequestStatus `db:"status" json:"status"`
	AssignedTo             string        `db:"assigned_to" json:"assigned_to"`
	LegislationType        Legislation   `db:"legislation_type" json:"legislation_type"`
	Description            string        `db:"description" json:"description"`
	ThirdPartyNotification bool          `db:"third_party_notification" json:"third_party_notification"`
	FeeEstimate            int           `db:"fee_estimate" json:"fee_estimate"`
	ExtensionGranted       bool          `db:"extension_granted" json:"extension_granted"`
	CreatedAt              time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time     `db:"updated_at" json:"updated_at"`
}

// FOIRequestFilter narrows a request listing. Empty fields do not restrict.
type FOIRequestFilter struct {
	Statuses     []RequestStatus
	Legislations []Legislation
	Search       string
}

// IsEmpty reports whether the filter places no restriction.
func (f FOIRequestFilter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Legislations) == 0 && f.Search == ""
}

// FOITransition describes a guarded status change applied atomically by a store.
type FOITransition struct {
	ID               string
	FromStatus       []RequestStatus
	RequireExtension *bool
	ToStatus         RequestStatus
	DueDate          *Date
	ExtensionGranted *bool
	UpdatedAt        time.Time
}

// Permits reports whether the record satisfies the transition guard.
func (t FOITransition) Permits(record *FOIRequest) bool {
	if record == nil {
		return false
	}
	allowed := false
	for _, status := range t.FromStatus {
		if record.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if t.RequireExtension != nil && record.ExtensionGranted != *t.RequireExtension {
		return false
	}
	return true
}

// ApplyTo mutates the record with the transition effects.
func (t FOITransition) ApplyTo(record *FOIRequest) {
	record.Status = t.ToStatus
	if t.DueDate != nil {
		record.DueDate = *t.DueDate
	}
	if t.ExtensionGranted != nil {
		record.ExtensionGranted = *t.ExtensionGranted
	}
	if !t.UpdatedAt.IsZero() {
		record.UpdatedAt = t.UpdatedAt
	}
}

// RequestIDFunc derives a request identifier from its 1-based position in the store.
type RequestIDFunc func(sequence int) string
