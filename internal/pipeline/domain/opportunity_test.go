package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStageIsLate(t *testing.T) {
	assert.True(t, StageNegotiation.IsLate())
	assert.True(t, StageVerbalCommitment.IsLate())
	assert.False(t, StageProposal.IsLate())
	assert.False(t, StageClosedWon.IsLate())
}

func TestStageDisplayName(t *testing.T) {
	assert.Equal(t, "verbal commitment", StageVerbalCommitment.DisplayName())
	assert.Equal(t, "negotiation", StageNegotiation.DisplayName())
}

func TestHasNextStep(t *testing.T) {
	step := "Schedule follow-up inspection"
	blank := "   "
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, Opportunity{NextStep: &step, NextStepDate: &date}.HasNextStep())
	assert.False(t, Opportunity{NextStep: &step}.HasNextStep())
	assert.False(t, Opportunity{NextStepDate: &date}.HasNextStep())
	assert.False(t, Opportunity{NextStep: &blank, NextStepDate: &date}.HasNextStep())
}

func TestValidateAmounts(t *testing.T) {
	ok := Opportunity{Amount: decimal.NewFromInt(1000), WeightedAmount: decimal.NewFromInt(400)}
	assert.NoError(t, ok.ValidateAmounts())

	negative := Opportunity{Amount: decimal.NewFromInt(-1)}
	assert.ErrorIs(t, negative.ValidateAmounts(), ErrNegativeAmount)

	negativeWeighted := Opportunity{Amount: decimal.NewFromInt(10), WeightedAmount: decimal.NewFromInt(-1)}
	assert.ErrorIs(t, negativeWeighted.ValidateAmounts(), ErrNegativeWeightedAmount)

	exceeds := Opportunity{Amount: decimal.NewFromInt(10), WeightedAmount: decimal.NewFromInt(11)}
	assert.ErrorIs(t, exceeds.ValidateAmounts(), ErrWeightedExceedsAmount)
}
