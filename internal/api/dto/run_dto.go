package dto

import "github.com/spec-kit/ticket-autopilot/internal/service"

// RunReportResponse is the JSON shape of one automation run outcome.
type RunReportResponse struct {
	TicketID    int64  `json:"ticket_id"`
	FinalStatus string `json:"final_status,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// BatchResponse aggregates a batch run.
type BatchResponse struct {
	Processed int                 `json:"processed"`
	Reports   []RunReportResponse `json:"reports"`
}

// FromRunReport maps a service report onto the wire shape.
func FromRunReport(r service.RunReport) RunReportResponse {
	return RunReportResponse{
		TicketID:    r.TicketID,
		FinalStatus: string(r.FinalStatus),
		Summary:     r.Summary,
		Error:       r.Error,
		DurationMS:  r.Duration.Milliseconds(),
	}
}

// FromRunReports maps a batch of reports.
func FromRunReports(reports []service.RunReport) BatchResponse {
	out := BatchResponse{Processed: len(reports), Reports: make([]RunReportResponse, 0, len(reports))}
	for _, r := range reports {
		out.Reports = append(out.Reports, FromRunReport(r))
	}
	return out
}
