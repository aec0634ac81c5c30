package service

import (
	"context"
	"fmt"
	"time"

	"pestcrm_backend/internal/forecast"
	"pestcrm_backend/internal/forecast/repository"
	"pestcrm_backend/internal/pipeline/domain"
	"pestcrm_backend/platform/logger"

	"github.com/google/uuid"
)

// PipelineReader supplies organizations, users and their opportunities.
type PipelineReader interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	ListActiveUsersByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.User, error)
	ListOpenOpportunitiesClosingBetween(ctx context.Context, organizationID uuid.UUID, ownerID *uuid.UUID, start, end time.Time) ([]domain.Opportunity, error)
}

// SnapshotStore persists snapshots idempotently by key.
type SnapshotStore interface {
	Upsert(ctx context.Context, p repository.UpsertParams) (repository.UpsertOutcome, error)
	ListSnapshots(ctx context.Context, f repository.ListFilter) ([]repository.Snapshot, error)
}

// Result summarizes one run of the snapshot job.
type Result struct {
	SnapshotsCreated int
	Inserted         int
	Updated          int
	SkippedUsers     int
	FailedWrites     int
	SnapshotDate     time.Time
	Period           forecast.Period
}

type Service struct {
	pipeline  PipelineReader
	snapshots SnapshotStore
	log       *logger.Logger
	location  *time.Location
	now       func() time.Time
}

func New(pipeline PipelineReader, snapshots SnapshotStore, location *time.Location, log *logger.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		pipeline:  pipeline,
		snapshots: snapshots,
		log:       log,
		location:  location,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run snapshots the current month for every active user of every
// organization, then the organization as a whole.
func (s *Service) Run(ctx context.Context) (Result, error) {
	now := s.now().In(s.location)
	result := Result{
		SnapshotDate: forecast.Day(now),
		Period:       forecast.MonthContaining(now),
	}

	orgs, err := s.pipeline.ListOrganizations(ctx)
	if err != nil {
		return result, fmt.Errorf("list organizations: %w", err)
	}

	for _, org := range orgs {
		users, err := s.pipeline.ListActiveUsersByOrganization(ctx, org.ID)
		if err != nil {
			return result, fmt.Errorf("list active users for organization %s: %w", org.ID, err)
		}

		for _, u := range users {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			userID := u.ID
			data, err := s.aggregate(ctx, org.ID, &userID, result.Period)
			if err != nil {
				result.SkippedUsers++
				s.warn("forecast aggregation skipped user", "organizationId", org.ID, "userId", userID, "error", err)
				continue
			}
			s.store(ctx, &result, org.ID, &userID, data)
		}

		data, err := s.aggregate(ctx, org.ID, nil, result.Period)
		if err != nil {
			return result, fmt.Errorf("aggregate organization %s: %w", org.ID, err)
		}
		s.store(ctx, &result, org.ID, nil, data)
	}

	return result, nil
}

// List returns stored snapshots for an organization.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]repository.Snapshot, error) {
	return s.snapshots.ListSnapshots(ctx, f)
}

func (s *Service) aggregate(ctx context.Context, organizationID uuid.UUID, ownerID *uuid.UUID, period forecast.Period) (forecast.ForecastData, error) {
	opportunities, err := s.pipeline.ListOpenOpportunitiesClosingBetween(ctx, organizationID, ownerID, civilDate(period.Start), civilDate(period.End))
	if err != nil {
		return forecast.ForecastData{}, err
	}

	inPeriod := opportunities[:0:0]
	for _, o := range opportunities {
		if period.Contains(o.ExpectedCloseDate) {
			inPeriod = append(inPeriod, o)
		}
	}
	return forecast.Aggregate(inPeriod), nil
}

// store upserts one snapshot. Write failures are logged and skipped.
func (s *Service) store(ctx context.Context, result *Result, organizationID uuid.UUID, userID *uuid.UUID, data forecast.ForecastData) {
	outcome, err := s.snapshots.Upsert(ctx, repository.UpsertParams{
		OrganizationID: organizationID,
		UserID:         userID,
		SnapshotDate:   civilDate(result.SnapshotDate),
		PeriodStart:    civilDate(result.Period.Start),
		PeriodEnd:      civilDate(result.Period.End),
		CommitAmount:   data.Commit,
		BestCaseAmount: data.BestCase,
		PipelineAmount: data.Pipeline,
	})
	if err != nil {
		result.FailedWrites++
		s.warn("forecast snapshot write skipped", "organizationId", organizationID, "userId", userID, "error", err)
		return
	}

	result.SnapshotsCreated++
	if outcome.Inserted {
		result.Inserted++
	} else {
		result.Updated++
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.log != nil {
		s.log.Warn(msg, args...)
	}
}

// civilDate re-expresses a calendar day as UTC midnight so DATE parameters
// carry the intended day regardless of the job's location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
