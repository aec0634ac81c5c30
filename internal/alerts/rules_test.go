package alerts

import (
	"errors"
	"testing"
	"time"

	"pestcrm_backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func openOpportunity(name string) domain.Opportunity {
	return domain.Opportunity{
		ID:                uuid.New(),
		OrganizationID:    uuid.New(),
		OwnerID:           uuid.New(),
		Name:              name,
		Status:            domain.StatusOpen,
		Stage:             domain.StageProposal,
		Amount:            decimal.NewFromInt(50_000),
		WeightedAmount:    decimal.NewFromInt(25_000),
		ForecastCategory:  domain.ForecastPipeline,
		NextStep:          strPtr("Send termite treatment proposal"),
		NextStepDate:      timePtr(testNow.Add(48 * time.Hour)),
		LastActivityAt:    timePtr(testNow.Add(-time.Hour)),
		ExpectedCloseDate: testNow.AddDate(0, 0, 10),
	}
}

func TestMissingNextStepFiresOncePerOpportunity(t *testing.T) {
	empty := openOpportunity("Riverside HOA")
	empty.NextStep = strPtr("")

	noDate := openOpportunity("Oak Street Bakery")
	noDate.NextStepDate = nil

	absent := openOpportunity("Harbor Warehouse")
	absent.NextStep = nil

	closed := openOpportunity("Closed Deal")
	closed.Status = domain.StatusWon
	closed.NextStep = nil

	healthy := openOpportunity("Healthy Deal")

	got := EvaluateMissingNextStep([]domain.Opportunity{empty, noDate, absent, closed, healthy})
	require.Len(t, got, 3)

	for i, o := range []domain.Opportunity{empty, noDate, absent} {
		assert.Equal(t, SeverityError, got[i].Severity)
		assert.Equal(t, TitleMissingNextStep, got[i].Title)
		assert.Equal(t, o.OwnerID, got[i].UserID)
		assert.Equal(t, o.OrganizationID, got[i].OrganizationID)
		require.NotNil(t, got[i].RelatedEntityID)
		assert.Equal(t, o.ID, *got[i].RelatedEntityID)
		assert.Equal(t, RelatedEntityOpportunity, *got[i].RelatedEntityType)
		assert.Contains(t, got[i].Message, o.Name)
	}
}

func TestStalledBoundary(t *testing.T) {
	justInside := openOpportunity("Just inside")
	justInside.LastActivityAt = timePtr(testNow.Add(-StalledWindow + time.Second))

	exactly := openOpportunity("Exactly seven days")
	exactly.LastActivityAt = timePtr(testNow.Add(-StalledWindow))

	older := openOpportunity("Older")
	older.LastActivityAt = timePtr(testNow.Add(-StalledWindow - time.Second))

	never := openOpportunity("Never touched")
	never.LastActivityAt = nil

	got := EvaluateStalled([]domain.Opportunity{justInside, exactly, older, never}, testNow)
	require.Len(t, got, 2)
	assert.Equal(t, older.ID, *got[0].RelatedEntityID)
	assert.Equal(t, never.ID, *got[1].RelatedEntityID)
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Equal(t, TitleStalled, got[0].Title)
}

func TestStalledIgnoresClosedOpportunities(t *testing.T) {
	lost := openOpportunity("Lost")
	lost.Status = domain.StatusLost
	lost.LastActivityAt = nil

	assert.Empty(t, EvaluateStalled([]domain.Opportunity{lost}, testNow))
}

func TestLateStageUsesIndependentThreshold(t *testing.T) {
	o := openOpportunity("County School District")
	o.Stage = domain.StageNegotiation
	o.Amount = decimal.NewFromInt(48_500)
	o.LastActivityAt = timePtr(testNow.Add(-4 * 24 * time.Hour))

	assert.Empty(t, EvaluateStalled([]domain.Opportunity{o}, testNow))

	late := EvaluateLateStageStalled([]domain.Opportunity{o}, testNow)
	require.Len(t, late, 1)
	assert.Equal(t, SeverityError, late[0].Severity)
	assert.Equal(t, TitleLateStageRisk, late[0].Title)
	assert.Contains(t, late[0].Message, "$48,500")
	assert.Contains(t, late[0].Message, "negotiation")
}

func TestLateStageAndStalledBothFire(t *testing.T) {
	o := openOpportunity("Metro Hospital")
	o.Stage = domain.StageVerbalCommitment
	o.LastActivityAt = timePtr(testNow.Add(-10 * 24 * time.Hour))

	stalled := EvaluateStalled([]domain.Opportunity{o}, testNow)
	late := EvaluateLateStageStalled([]domain.Opportunity{o}, testNow)
	require.Len(t, stalled, 1)
	require.Len(t, late, 1)
	assert.NotEqual(t, stalled[0].Key(), late[0].Key())
	assert.Contains(t, late[0].Message, "verbal commitment")
}

func TestLateStageIgnoresEarlyStagesAndRecentActivity(t *testing.T) {
	early := openOpportunity("Early")
	early.Stage = domain.StageQualification
	early.LastActivityAt = nil

	recent := openOpportunity("Recent")
	recent.Stage = domain.StageNegotiation
	recent.LastActivityAt = timePtr(testNow.Add(-LateStageWindow + time.Second))

	assert.Empty(t, EvaluateLateStageStalled([]domain.Opportunity{early, recent}, testNow))
}

func activeUser() domain.User {
	return domain.User{ID: uuid.New(), OrganizationID: uuid.New(), Status: domain.UserActive}
}

func weighted(amount int64) domain.Opportunity {
	o := openOpportunity("weighted")
	o.Amount = decimal.NewFromInt(amount)
	o.WeightedAmount = decimal.NewFromInt(amount)
	return o
}

func TestLowCoverageBelowThreshold(t *testing.T) {
	u := activeUser()
	outcome := EvaluateLowCoverage([]UserPipeline{{
		User:          u,
		Opportunities: []domain.Opportunity{weighted(150_000), weighted(100_000)},
	}})

	require.Len(t, outcome.Alerts, 1)
	alert := outcome.Alerts[0]
	assert.Equal(t, u.ID, alert.UserID)
	assert.Equal(t, u.OrganizationID, alert.OrganizationID)
	assert.Equal(t, SeverityWarning, alert.Severity)
	assert.Equal(t, TitleLowCoverage, alert.Title)
	assert.Nil(t, alert.RelatedEntityID)
	assert.Nil(t, alert.RelatedEntityType)
	assert.Contains(t, alert.Message, "250%")
	assert.Contains(t, alert.Message, "$300,000")
	assert.Empty(t, outcome.Skipped)
}

func TestLowCoverageAtThresholdDoesNotAlert(t *testing.T) {
	outcome := EvaluateLowCoverage([]UserPipeline{{
		User:          activeUser(),
		Opportunities: []domain.Opportunity{weighted(300_000)},
	}})
	assert.Empty(t, outcome.Alerts)
}

func TestLowCoverageWithNoPipelineAlerts(t *testing.T) {
	outcome := EvaluateLowCoverage([]UserPipeline{{User: activeUser()}})
	require.Len(t, outcome.Alerts, 1)
	assert.Contains(t, outcome.Alerts[0].Message, "0%")
}

func TestLowCoverageSkipsUsersWithQueryErrors(t *testing.T) {
	failing := activeUser()
	outcome := EvaluateLowCoverage([]UserPipeline{{User: failing, Err: errors.New("connection reset")}})

	assert.Empty(t, outcome.Alerts)
	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, failing.ID, outcome.Skipped[0].UserID)
	assert.Equal(t, "connection reset", outcome.Skipped[0].Reason)
}

func TestLowCoverageIgnoresInactiveUsers(t *testing.T) {
	u := activeUser()
	u.Status = domain.UserInactive
	outcome := EvaluateLowCoverage([]UserPipeline{{User: u}})
	assert.Empty(t, outcome.Alerts)
	assert.Empty(t, outcome.Skipped)
}

func TestCoverageIgnoresClosedOpportunities(t *testing.T) {
	closed := weighted(500_000)
	closed.Status = domain.StatusWon

	total, ratio := Coverage([]domain.Opportunity{weighted(50_000), closed})
	assert.True(t, total.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, ratio.Equal(decimal.RequireFromString("0.5")))
}
