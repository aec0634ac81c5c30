package transport

import (
	"time"

	"pestcrm_backend/internal/forecast"
	"pestcrm_backend/internal/forecast/repository"
	"pestcrm_backend/internal/forecast/service"
)

// ForecastSnapshotResponse is the success body of the snapshot job.
type ForecastSnapshotResponse struct {
	Success          bool   `json:"success"`
	SnapshotsCreated int    `json:"snapshotsCreated"`
	SnapshotDate     string `json:"snapshotDate"`
	PeriodStart      string `json:"periodStart"`
	PeriodEnd        string `json:"periodEnd"`
}

func NewForecastSnapshotResponse(result service.Result) ForecastSnapshotResponse {
	return ForecastSnapshotResponse{
		Success:          true,
		SnapshotsCreated: result.SnapshotsCreated,
		SnapshotDate:     result.SnapshotDate.Format(forecast.DateLayout),
		PeriodStart:      result.Period.Start.Format(forecast.DateLayout),
		PeriodEnd:        result.Period.End.Format(forecast.DateLayout),
	}
}

// SnapshotDTO is a stored snapshot as returned by the read API. Amounts are
// decimal strings.
type SnapshotDTO struct {
	ID             string    `json:"id"`
	UserID         *string   `json:"userId"`
	SnapshotDate   string    `json:"snapshotDate"`
	PeriodStart    string    `json:"periodStart"`
	PeriodEnd      string    `json:"periodEnd"`
	CommitAmount   string    `json:"commitAmount"`
	BestCaseAmount string    `json:"bestCaseAmount"`
	PipelineAmount string    `json:"pipelineAmount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewSnapshotDTOs(items []repository.Snapshot) []SnapshotDTO {
	out := make([]SnapshotDTO, 0, len(items))
	for _, s := range items {
		dto := SnapshotDTO{
			ID:             s.ID.String(),
			SnapshotDate:   s.SnapshotDate.Format(forecast.DateLayout),
			PeriodStart:    s.PeriodStart.Format(forecast.DateLayout),
			PeriodEnd:      s.PeriodEnd.Format(forecast.DateLayout),
			CommitAmount:   s.CommitAmount.StringFixed(2),
			BestCaseAmount: s.BestCaseAmount.StringFixed(2),
			PipelineAmount: s.PipelineAmount.StringFixed(2),
			UpdatedAt:      s.UpdatedAt,
		}
		if s.UserID != nil {
			id := s.UserID.String()
			dto.UserID = &id
		}
		out = append(out, dto)
	}
	return out
}
