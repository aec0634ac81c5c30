package repository

import (
	"context"
	"fmt"
	"time"

	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	opUpsert = "forecast.repository.upsert_snapshot"
	opList   = "forecast.repository.list_snapshots"

	errRepoNotConfigured = "forecast repository not configured"
)

// Snapshot is a stored forecast rollup. A nil UserID is the organization rollup.
type Snapshot struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	UserID         *uuid.UUID      `json:"userId,omitempty"`
	SnapshotDate   time.Time       `json:"snapshotDate"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
	CommitAmount   decimal.Decimal `json:"commitAmount"`
	BestCaseAmount decimal.Decimal `json:"bestCaseAmount"`
	PipelineAmount decimal.Decimal `json:"pipelineAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// UpsertParams identifies a snapshot by (OrganizationID, UserID, SnapshotDate,
// PeriodStart) and carries the amounts to store.
type UpsertParams struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	SnapshotDate   time.Time
	PeriodStart    time.Time
	PeriodEnd      time.Time
	CommitAmount   decimal.Decimal
	BestCaseAmount decimal.Decimal
	PipelineAmount decimal.Decimal
}

// UpsertOutcome tells whether an upsert created a row or overwrote one.
type UpsertOutcome struct {
	ID       uuid.UUID
	Inserted bool
}

// ListFilter narrows ListSnapshots. Nil fields are not filtered on; OrgRollupOnly
// selects rows with a null user.
type ListFilter struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	OrgRollupOnly  bool
	PeriodStart    *time.Time
	Limit          int
}

type Repository struct {
	db db.DBTX
}

func New(q db.DBTX) *Repository {
	return &Repository{db: q}
}

// Upsert writes a snapshot in a single statement. The unique constraint on the
// snapshot key treats a null user as a value, so concurrent runs for the same
// key converge on one row instead of inserting twice.
func (r *Repository) Upsert(ctx context.Context, p UpsertParams) (UpsertOutcome, error) {
	if r == nil || r.db == nil {
		return UpsertOutcome{}, apperr.Internal(errRepoNotConfigured).WithOp(opUpsert)
	}
	if p.OrganizationID == uuid.Nil {
		return UpsertOutcome{}, apperr.Validation("organizationId is required").WithOp(opUpsert)
	}
	if p.PeriodEnd.Before(p.PeriodStart) {
		return UpsertOutcome{}, apperr.Validation("periodEnd must not be before periodStart").WithOp(opUpsert)
	}

	var out UpsertOutcome
	err := r.db.QueryRow(ctx, `
		INSERT INTO forecast_snapshots
			(organization_id, user_id, snapshot_date, period_start, period_end, commit_amount, best_case_amount, pipeline_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT forecast_snapshots_key DO UPDATE
		SET commit_amount = EXCLUDED.commit_amount,
			best_case_amount = EXCLUDED.best_case_amount,
			pipeline_amount = EXCLUDED.pipeline_amount,
			updated_at = now()
		RETURNING id, (xmax = 0) AS inserted
	`, p.OrganizationID, p.UserID, p.SnapshotDate, p.PeriodStart, p.PeriodEnd, p.CommitAmount, p.BestCaseAmount, p.PipelineAmount).Scan(&out.ID, &out.Inserted)
	if err != nil {
		return UpsertOutcome{}, apperr.Internal(fmt.Sprintf("upsert forecast snapshot failed: %v", err)).WithOp(opUpsert)
	}

	return out, nil
}

// ListSnapshots returns snapshots of one organization, newest snapshot date first.
func (r *Repository) ListSnapshots(ctx context.Context, f ListFilter) ([]Snapshot, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if f.OrganizationID == uuid.Nil {
		return nil, apperr.Validation("organizationId is required").WithOp(opList)
	}
	limit := f.Limit
	if limit < 1 || limit > 366 {
		limit = 90
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, user_id, snapshot_date, period_start, period_end,
			commit_amount, best_case_amount, pipeline_amount, created_at, updated_at
		FROM forecast_snapshots
		WHERE organization_id = $1
		  AND ($2::uuid IS NULL OR user_id = $2)
		  AND (NOT $3 OR user_id IS NULL)
		  AND ($4::date IS NULL OR period_start = $4)
		ORDER BY snapshot_date DESC, user_id NULLS FIRST
		LIMIT $5
	`, f.OrganizationID, f.UserID, f.OrgRollupOnly, f.PeriodStart, limit)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list forecast snapshots failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Snapshot, 0)
	for rows.Next() {
		var s Snapshot
		if scanErr := rows.Scan(
			&s.ID, &s.OrganizationID, &s.UserID, &s.SnapshotDate, &s.PeriodStart, &s.PeriodEnd,
			&s.CommitAmount, &s.BestCaseAmount, &s.PipelineAmount, &s.CreatedAt, &s.UpdatedAt,
		); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan forecast snapshot failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, s)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate forecast snapshots failed: %v", rowsErr)).WithOp(opList)
	}

	return items, nil
}
