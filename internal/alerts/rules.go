// Package alerts turns the current pipeline into notifications for sales users.
// The evaluators in this file are pure: they take a snapshot of opportunities
// and users plus the evaluation time and return candidate alerts.
package alerts

import (
	"fmt"
	"time"

	"pestcrm_backend/internal/pipeline/domain"
	"pestcrm_backend/platform/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StalledWindow   = 7 * 24 * time.Hour
	LateStageWindow = 3 * 24 * time.Hour

	RelatedEntityOpportunity = "opportunity"
)

var (
	// MonthlyQuota is the fixed per-user quota used for coverage.
	MonthlyQuota = decimal.NewFromInt(100_000)
	// CoverageThreshold is the minimum weighted pipeline to quota ratio.
	CoverageThreshold = decimal.NewFromInt(3)
)

// Titles double as part of the dedup key and must stay stable.
const (
	TitleMissingNextStep = "Missing Next Step"
	TitleStalled         = "Stalled Opportunity"
	TitleLateStageRisk   = "Late-Stage Deal at Risk"
	TitleLowCoverage     = "Low Pipeline Coverage"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rule identifies which evaluator produced an alert.
type Rule string

const (
	RuleMissingNextStep  Rule = "missing_next_step"
	RuleStalled          Rule = "stalled"
	RuleLateStageStalled Rule = "late_stage_stalled"
	RuleLowCoverage      Rule = "low_coverage"
)

// UserAlert is a candidate notification for one user.
type UserAlert struct {
	Rule              Rule
	OrganizationID    uuid.UUID
	UserID            uuid.UUID
	Title             string
	Message           string
	Severity          Severity
	RelatedEntityType *string
	RelatedEntityID   *uuid.UUID
}

// EvaluateMissingNextStep flags open opportunities without a next step or
// without a next step date.
func EvaluateMissingNextStep(opportunities []domain.Opportunity) []UserAlert {
	out := make([]UserAlert, 0)
	for _, o := range opportunities {
		if !o.IsOpen() || o.HasNextStep() {
			continue
		}
		out = append(out, opportunityAlert(o, RuleMissingNextStep, TitleMissingNextStep, SeverityError,
			fmt.Sprintf("Opportunity %q has no next step or next step date. Add one to keep the deal moving.", o.Name)))
	}
	return out
}

// EvaluateStalled flags open opportunities with no activity in the last seven days.
func EvaluateStalled(opportunities []domain.Opportunity, now time.Time) []UserAlert {
	cutoff := now.Add(-StalledWindow)
	out := make([]UserAlert, 0)
	for _, o := range opportunities {
		if !o.IsOpen() || !inactiveSince(o, cutoff) {
			continue
		}
		out = append(out, opportunityAlert(o, RuleStalled, TitleStalled, SeverityWarning,
			fmt.Sprintf("Opportunity %q has had no activity in over 7 days.", o.Name)))
	}
	return out
}

// EvaluateLateStageStalled flags open negotiation or verbal commitment deals
// with no activity in the last three days. It fires independently of
// EvaluateStalled.
func EvaluateLateStageStalled(opportunities []domain.Opportunity, now time.Time) []UserAlert {
	cutoff := now.Add(-LateStageWindow)
	out := make([]UserAlert, 0)
	for _, o := range opportunities {
		if !o.IsOpen() || !o.Stage.IsLate() || !inactiveSince(o, cutoff) {
			continue
		}
		out = append(out, opportunityAlert(o, RuleLateStageStalled, TitleLateStageRisk, SeverityError,
			fmt.Sprintf("%s deal %q is in %s with no activity in over 3 days.", money.FormatUSD(o.Amount), o.Name, o.Stage.DisplayName())))
	}
	return out
}

// UserPipeline is the per-user input of the coverage rule. Err is set when
// the user's opportunities could not be read; such users are skipped rather
// than treated as having no pipeline.
type UserPipeline struct {
	User          domain.User
	Opportunities []domain.Opportunity
	Err           error
}

// SkippedUser records a user the coverage rule could not evaluate.
type SkippedUser struct {
	UserID uuid.UUID
	Reason string
}

// CoverageOutcome is the result of EvaluateLowCoverage.
type CoverageOutcome struct {
	Alerts  []UserAlert
	Skipped []SkippedUser
}

// Coverage returns weighted open pipeline divided by MonthlyQuota.
func Coverage(opportunities []domain.Opportunity) (weighted decimal.Decimal, ratio decimal.Decimal) {
	weighted = decimal.Zero
	for _, o := range opportunities {
		if !o.IsOpen() {
			continue
		}
		weighted = weighted.Add(o.WeightedAmount)
	}
	return weighted, weighted.Div(MonthlyQuota)
}

// EvaluateLowCoverage flags active users whose coverage ratio is strictly
// below CoverageThreshold.
func EvaluateLowCoverage(pipelines []UserPipeline) CoverageOutcome {
	outcome := CoverageOutcome{Alerts: make([]UserAlert, 0), Skipped: make([]SkippedUser, 0)}
	required := MonthlyQuota.Mul(CoverageThreshold)

	for _, p := range pipelines {
		if p.User.Status != domain.UserActive {
			continue
		}
		if p.Err != nil {
			outcome.Skipped = append(outcome.Skipped, SkippedUser{UserID: p.User.ID, Reason: p.Err.Error()})
			continue
		}

		_, ratio := Coverage(p.Opportunities)
		if !ratio.LessThan(CoverageThreshold) {
			continue
		}

		percent := ratio.Mul(decimal.NewFromInt(100)).Round(0)
		outcome.Alerts = append(outcome.Alerts, UserAlert{
			Rule:           RuleLowCoverage,
			OrganizationID: p.User.OrganizationID,
			UserID:         p.User.ID,
			Title:          TitleLowCoverage,
			Severity:       SeverityWarning,
			Message: fmt.Sprintf("Your pipeline coverage is %s%% of quota (%sx). You need %s in weighted pipeline to reach %sx coverage.",
				percent.String(), ratio.StringFixed(1), money.FormatUSD(required), CoverageThreshold.String()),
		})
	}

	return outcome
}

func inactiveSince(o domain.Opportunity, cutoff time.Time) bool {
	return o.LastActivityAt == nil || o.LastActivityAt.Before(cutoff)
}

func opportunityAlert(o domain.Opportunity, rule Rule, title string, severity Severity, message string) UserAlert {
	entityType := RelatedEntityOpportunity
	entityID := o.ID
	return UserAlert{
		Rule:              rule,
		OrganizationID:    o.OrganizationID,
		UserID:            o.OwnerID,
		Title:             title,
		Message:           message,
		Severity:          severity,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
	}
}
