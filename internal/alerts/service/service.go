package service

import (
	"context"
	"fmt"
	"time"

	"pestcrm_backend/internal/alerts"
	"pestcrm_backend/internal/notification/inapp"
	"pestcrm_backend/internal/pipeline/domain"
	"pestcrm_backend/platform/logger"

	"github.com/google/uuid"
)

// PipelineReader is the data the alert rules evaluate.
type PipelineReader interface {
	ListOpenOpportunities(ctx context.Context) ([]domain.Opportunity, error)
	ListActiveUsers(ctx context.Context) ([]domain.User, error)
	ListOpenOpportunitiesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Opportunity, error)
}

// NotificationStore reads recent unread notifications and persists new ones.
type NotificationStore interface {
	RecentUnread(ctx context.Context, since time.Time) ([]inapp.UnreadKey, error)
	SendBatch(ctx context.Context, items []inapp.CreateParams) (int, error)
}

// Result summarizes one run of the alert job.
type Result struct {
	AlertsGenerated      int
	NotificationsCreated int
	ByRule               map[alerts.Rule]int
	Suppressed           int
	SkippedUsers         []alerts.SkippedUser
	WriteError           string
	Timestamp            time.Time
}

type Service struct {
	pipeline      PipelineReader
	notifications NotificationStore
	log           *logger.Logger
	now           func() time.Time
}

func New(pipeline PipelineReader, notifications NotificationStore, log *logger.Logger) *Service {
	return &Service{
		pipeline:      pipeline,
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

// WithClock overrides the evaluation time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run evaluates every rule against the current pipeline, drops alerts that
// repeat a recent unread notification and stores the rest in one batch.
func (s *Service) Run(ctx context.Context) (Result, error) {
	now := s.now().UTC()
	result := Result{ByRule: map[alerts.Rule]int{}, Timestamp: now}

	opportunities, err := s.pipeline.ListOpenOpportunities(ctx)
	if err != nil {
		return result, fmt.Errorf("list open opportunities: %w", err)
	}

	candidates := make([]alerts.UserAlert, 0)
	candidates = append(candidates, alerts.EvaluateMissingNextStep(opportunities)...)
	candidates = append(candidates, alerts.EvaluateStalled(opportunities, now)...)
	candidates = append(candidates, alerts.EvaluateLateStageStalled(opportunities, now)...)

	coverage, err := s.evaluateCoverage(ctx)
	if err != nil {
		return result, err
	}
	candidates = append(candidates, coverage.Alerts...)
	result.SkippedUsers = coverage.Skipped

	for _, a := range candidates {
		result.ByRule[a.Rule]++
	}
	result.AlertsGenerated = len(candidates)

	existing, err := s.notifications.RecentUnread(ctx, now.Add(-alerts.DedupWindow))
	if err != nil {
		return result, fmt.Errorf("list recent unread notifications: %w", err)
	}

	survivors := alerts.FilterDuplicates(candidates, toExisting(existing))
	result.Suppressed = len(candidates) - len(survivors)
	if len(survivors) == 0 {
		return result, nil
	}

	created, err := s.notifications.SendBatch(ctx, toCreateParams(survivors))
	if err != nil {
		if s.log != nil {
			s.log.Error("notification batch write failed", "error", err, "alerts", len(survivors))
		}
		result.WriteError = err.Error()
		return result, nil
	}
	result.NotificationsCreated = created

	return result, nil
}

func (s *Service) evaluateCoverage(ctx context.Context) (alerts.CoverageOutcome, error) {
	users, err := s.pipeline.ListActiveUsers(ctx)
	if err != nil {
		return alerts.CoverageOutcome{}, fmt.Errorf("list active users: %w", err)
	}

	pipelines := make([]alerts.UserPipeline, 0, len(users))
	for _, u := range users {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return alerts.CoverageOutcome{}, ctxErr
		}
		opportunities, err := s.pipeline.ListOpenOpportunitiesByOwner(ctx, u.ID)
		pipelines = append(pipelines, alerts.UserPipeline{User: u, Opportunities: opportunities, Err: err})
	}

	outcome := alerts.EvaluateLowCoverage(pipelines)
	if s.log != nil {
		for _, skipped := range outcome.Skipped {
			s.log.Warn("coverage check skipped user", "userId", skipped.UserID, "reason", skipped.Reason)
		}
	}
	return outcome, nil
}

func toExisting(keys []inapp.UnreadKey) []alerts.ExistingNotification {
	out := make([]alerts.ExistingNotification, 0, len(keys))
	for _, k := range keys {
		out = append(out, alerts.ExistingNotification{UserID: k.UserID, Title: k.Title, RelatedEntityID: k.RelatedEntityID})
	}
	return out
}

func toCreateParams(items []alerts.UserAlert) []inapp.CreateParams {
	out := make([]inapp.CreateParams, 0, len(items))
	for _, a := range items {
		out = append(out, inapp.CreateParams{
			OrganizationID:    a.OrganizationID,
			UserID:            a.UserID,
			Title:             a.Title,
			Message:           a.Message,
			Type:              string(a.Severity),
			RelatedEntityType: a.RelatedEntityType,
			RelatedEntityID:   a.RelatedEntityID,
		})
	}
	return out
}
