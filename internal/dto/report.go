package dto

import (
	"time"

	"github.com/gridtrain/eval-api/internal/models"
)

// ReportRequest is the body of POST /reports. ResourceID names a cycle or a
// simulator session depending on Type.
type ReportRequest struct {
	Type       models.ReportType   `json:"type" validate:"required,oneof=cycle session"`
	ResourceID string              `json:"resource_id" validate:"required"`
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse acknowledges a queued export; poll StatusURL for progress.
type ReportJobResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	StatusURL string              `json:"status_url"`
}

type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Format     models.ReportFormat `json:"format"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"result_url,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}
