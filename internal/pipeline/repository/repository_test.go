package repository

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"pestcrm_backend/internal/pipeline/domain"
	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOpportunity() domain.Opportunity {
	return domain.Opportunity{
		ID:                uuid.New(),
		OrganizationID:    uuid.New(),
		OwnerID:           uuid.New(),
		Name:              "Quarterly rodent service",
		Status:            domain.StatusOpen,
		Stage:             domain.StageNegotiation,
		Amount:            decimal.NewFromInt(12_000),
		WeightedAmount:    decimal.NewFromInt(9_000),
		ForecastCategory:  domain.ForecastCommit,
		ExpectedCloseDate: time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateOpportunityAcceptsWellFormedRow(t *testing.T) {
	r := New(nil, nil, nil)
	require.NoError(t, r.validateOpportunity(validOpportunity()))
}

func TestValidateOpportunityRejectsMalformedRows(t *testing.T) {
	r := New(nil, nil, nil)

	tests := []struct {
		name   string
		mutate func(o *domain.Opportunity)
		target error
	}{
		{name: "missing owner", mutate: func(o *domain.Opportunity) { o.OwnerID = uuid.Nil }},
		{name: "missing name", mutate: func(o *domain.Opportunity) { o.Name = "" }},
		{name: "negative amount", mutate: func(o *domain.Opportunity) { o.Amount = decimal.NewFromInt(-1) }},
		{name: "unknown stage", mutate: func(o *domain.Opportunity) { o.Stage = "dormant" }},
		{name: "weighted above amount", mutate: func(o *domain.Opportunity) { o.WeightedAmount = decimal.NewFromInt(20_000) }, target: domain.ErrWeightedExceedsAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOpportunity()
			tt.mutate(&o)

			err := r.validateOpportunity(o)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

type failingDB struct {
	db.DBTX
	err error
}

func (f failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func TestQueryFailureIsLoggedAndTyped(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	cause := errors.New("canceling statement due to statement timeout")
	r := New(failingDB{err: cause}, nil, log)

	_, err := r.ListOrganizations(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInternal, e.Kind)
	assert.Equal(t, opListOrganizations, e.Op)

	assert.Contains(t, buf.String(), `"msg":"database_error"`)
	assert.Contains(t, buf.String(), `"operation":"`+opListOrganizations+`"`)
}
