package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatICS  ReportFormat = "ics"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is a persisted semester export request.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	SemesterID   string          `db:"semester_id" json:"semester_id"`
	Format       ReportFormat    `db:"format" json:"format"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams stores generation options as JSONB.
type ReportJobParams struct {
	AsOf     *Date  `json:"as_of,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	*p = ReportJobParams{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}

// UpdateReportJobParams lists the columns a worker may change. Nil fields are skipped.
type UpdateReportJobParams struct {
	Status       *ReportStatus
	Progress     *int
	ResultURL    *string
	FinishedAt   *time.Time
	ErrorMessage *string
}

// GenerateReportRequest asks for an asynchronous semester report.
type GenerateReportRequest struct {
	SemesterID string  `json:"semester_id" validate:"required"`
	Format     string  `json:"format" validate:"required,report_format"`
	AsOf       *string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// ReportStatusResponse is returned by the status endpoint.
type ReportStatusResponse struct {
	ID          string       `json:"id"`
	Status      ReportStatus `json:"status"`
	Progress    int          `json:"progress"`
	Format      ReportFormat `json:"format"`
	DownloadURL *string      `json:"download_url,omitempty"`
	Error       *string      `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
}
