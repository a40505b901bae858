package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the exportable evaluation forms.
type ReportType string

const (
	ReportTypeCycle   ReportType = "cycle"
	ReportTypeSession ReportType = "session"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus is the lifecycle of a report job:
// QUEUED -> PROCESSING -> FINISHED | FAILED.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob is one asynchronous export. ResultURL is a signed download link
// set once the file is stored.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	CompanyID    string          `db:"company_id" json:"company_id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams is the JSONB params column of report_jobs.
type ReportJobParams struct {
	ResourceID string       `json:"resource_id"`
	Format     ReportFormat `json:"format"`
	// Owner is the student the exported resource belongs to.
	Owner string `json:"owner,omitempty"`
}

func (p ReportJobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ReportJobParams) Scan(src interface{}) error {
	*p = ReportJobParams{}
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("report job params: cannot scan %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, p)
}
