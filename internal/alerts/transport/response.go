package transport

import "pestcrm_backend/internal/alerts/service"

// timestampLayout matches ISO 8601 with millisecond precision, e.g. 2026-10-15T12:00:00.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// PipelineAlertsResponse is the success body of the alert job.
type PipelineAlertsResponse struct {
	Success              bool   `json:"success"`
	AlertsGenerated      int    `json:"alertsGenerated"`
	NotificationsCreated int    `json:"notificationsCreated"`
	Timestamp            string `json:"timestamp"`
}

func NewPipelineAlertsResponse(result service.Result) PipelineAlertsResponse {
	return PipelineAlertsResponse{
		Success:              true,
		AlertsGenerated:      result.AlertsGenerated,
		NotificationsCreated: result.NotificationsCreated,
		Timestamp:            result.Timestamp.UTC().Format(timestampLayout),
	}
}
