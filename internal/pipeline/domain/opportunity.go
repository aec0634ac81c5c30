// Package domain holds the sales pipeline records read by the batch jobs.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OpportunityStatus string

const (
	StatusOpen OpportunityStatus = "open"
	StatusWon  OpportunityStatus = "won"
	StatusLost OpportunityStatus = "lost"
)

type Stage string

const (
	StageProspecting      Stage = "prospecting"
	StageQualification    Stage = "qualification"
	StageProposal         Stage = "proposal"
	StageNegotiation      Stage = "negotiation"
	StageVerbalCommitment Stage = "verbal_commitment"
	StageClosedWon        Stage = "closed_won"
	StageClosedLost       Stage = "closed_lost"
)

// IsLate reports whether the stage is one where a quiet deal is at risk of slipping.
func (s Stage) IsLate() bool {
	return s == StageNegotiation || s == StageVerbalCommitment
}

// DisplayName renders the stage for messages, e.g. "verbal commitment".
func (s Stage) DisplayName() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

type ForecastCategory string

const (
	ForecastCommit   ForecastCategory = "commit"
	ForecastBestCase ForecastCategory = "best_case"
	ForecastPipeline ForecastCategory = "pipeline"
)

var (
	ErrNegativeAmount         = errors.New("amount must not be negative")
	ErrNegativeWeightedAmount = errors.New("weighted amount must not be negative")
	ErrWeightedExceedsAmount  = errors.New("weighted amount must not exceed amount")
)

// Opportunity is a sales deal as read by the alert and forecast jobs.
type Opportunity struct {
	ID                uuid.UUID         `json:"id" validate:"required"`
	OrganizationID    uuid.UUID         `json:"organizationId" validate:"required"`
	OwnerID           uuid.UUID         `json:"ownerId" validate:"required"`
	Name              string            `json:"name" validate:"required"`
	Status            OpportunityStatus `json:"status" validate:"required,oneof=open won lost"`
	Stage             Stage             `json:"stage" validate:"required,oneof=prospecting qualification proposal negotiation verbal_commitment closed_won closed_lost"`
	Amount            decimal.Decimal   `json:"amount" validate:"gte=0"`
	WeightedAmount    decimal.Decimal   `json:"weightedAmount" validate:"gte=0"`
	ForecastCategory  ForecastCategory  `json:"forecastCategory"`
	NextStep          *string           `json:"nextStep,omitempty"`
	NextStepDate      *time.Time        `json:"nextStepDate,omitempty"`
	LastActivityAt    *time.Time        `json:"lastActivityAt,omitempty"`
	ExpectedCloseDate time.Time         `json:"expectedCloseDate"`
}

// IsOpen reports whether the deal is still being worked.
func (o Opportunity) IsOpen() bool {
	return o.Status == StatusOpen
}

// HasNextStep reports whether both a next step and its date are recorded.
func (o Opportunity) HasNextStep() bool {
	if o.NextStep == nil || strings.TrimSpace(*o.NextStep) == "" {
		return false
	}
	return o.NextStepDate != nil
}

// ValidateAmounts checks the money invariants of an opportunity.
func (o Opportunity) ValidateAmounts() error {
	if o.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if o.WeightedAmount.IsNegative() {
		return ErrNegativeWeightedAmount
	}
	if o.WeightedAmount.GreaterThan(o.Amount) {
		return ErrWeightedExceedsAmount
	}
	return nil
}
