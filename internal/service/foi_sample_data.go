package service

import "github.com/noah-isme/foi-request-api/internal/models"

// SampleFOIRequests returns the demonstration records loaded into empty stores.
// FOI-2024-002 keeps its recorded fee even though the schedule would compute 30.
func SampleFOIRequests() []models.FOIRequest {
	sample := []models.FOIRequest{
		{
			ID:                     "FOI-2024-001",
			RequesterName:          "John Smith",
			RequestType:            models.RequestTypePersonalHealth,
			DateReceived:           models.MustParseDate("2024-11-01"),
			DueDate:                models.MustParseDate("2024-12-01"),
			Status:                 models.RequestStatusInProgress,
			AssignedTo:             "Sarah Johnson",
			LegislationType:        models.LegislationPHIPA,
			Description:            "Request for complete medical records from 2020-2024",
			ThirdPartyNotification: false,
			FeeEstimate:            0,
		},
		{
			ID:                     "FOI-2024-002",
			RequesterName:          "Law Firm ABC",
			RequestType:            models.RequestTypeLegalInsurance,
			DateReceived:           models.MustParseDate("2024-11-15"),
			DueDate:                models.MustParseDate("2024-12-15"),
			Status:                 models.RequestStatusPendingReview,
			AssignedTo:             "Michael Chen",
			LegislationType:        models.LegislationFIPPA,
			Description:            "Incident reports and security footage from June 2024",
			ThirdPartyNotification: true,
			FeeEstimate:            120,
		},
		{
			ID:                     "FOI-2024-003",
			RequesterName:          "Jane Doe",
			RequestType:            models.RequestTypeAuditLogs,
			DateReceived:           models.MustParseDate("2024-10-20"),
			DueDate:                models.MustParseDate("2024-11-19"),
			Status:                 models.RequestStatusInProgress,
			AssignedTo:             "Sarah Johnson",
			LegislationType:        models.LegislationPHIPA,
			Description:            "Access logs for patient health record #12345",
			ThirdPartyNotification: false,
			FeeEstimate:            0,
		},
	}
	for i := range sample {
		sample[i].CreatedAt = sample[i].DateReceived.Time()
		sample[i].UpdatedAt = sample[i].DateReceived.Time()
	}
	return sample
}
