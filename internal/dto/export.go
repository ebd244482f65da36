package dto

import "github.com/noah-isme/foi-request-api/internal/models"

// CreateExportRequest payload for scheduling an asynchronous export.
type CreateExportRequest struct {
	Format       models.ExportFormat    `json:"format"`
	Statuses     []models.RequestStatus `json:"statuses"`
	Legislations []models.Legislation   `json:"legislations"`
	Search       string                 `json:"search"`
}

// ExportJobResponse is returned when an export is scheduled.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes export job progress to clients.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
