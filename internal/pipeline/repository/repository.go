package repository

import (
	"context"
	"fmt"
	"time"

	"pestcrm_backend/internal/pipeline/domain"
	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"
	"pestcrm_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	opListOpen          = "pipeline.repository.list_open"
	opListOpenByOwner   = "pipeline.repository.list_open_by_owner"
	opListClosing       = "pipeline.repository.list_open_closing_between"
	opListActiveUsers   = "pipeline.repository.list_active_users"
	opListOrgUsers      = "pipeline.repository.list_active_users_by_org"
	opListOrganizations = "pipeline.repository.list_organizations"

	errRepoNotConfigured = "pipeline repository not configured"
)

const opportunityColumns = `id, organization_id, owner_id, name, status, stage, amount, weighted_amount,
	forecast_category, next_step, next_step_date, last_activity_at, expected_close_date`

// Repository reads opportunities, users and organizations. Every row is
// validated on the way in; malformed opportunity rows are logged and dropped.
type Repository struct {
	db  db.DBTX
	val *validator.Validator
	log *logger.Logger
}

func New(q db.DBTX, val *validator.Validator, log *logger.Logger) *Repository {
	if val == nil {
		val = validator.New()
	}
	return &Repository{db: q, val: val, log: log}
}

// ListOpenOpportunities returns every open opportunity across all organizations.
func (r *Repository) ListOpenOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListOpen)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+opportunityColumns+`
		FROM opportunities
		WHERE status = 'open'
		ORDER BY organization_id, owner_id, id
	`)
	if err != nil {
		return nil, r.queryFailed(opListOpen, "list open opportunities failed", err)
	}
	return r.collectOpportunities(rows, opListOpen)
}

// ListOpenOpportunitiesByOwner returns the open opportunities owned by one user.
func (r *Repository) ListOpenOpportunitiesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Opportunity, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListOpenByOwner)
	}
	if ownerID == uuid.Nil {
		return nil, apperr.Validation("ownerId is required").WithOp(opListOpenByOwner)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+opportunityColumns+`
		FROM opportunities
		WHERE status = 'open' AND owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, r.queryFailed(opListOpenByOwner, "list open opportunities by owner failed", err)
	}
	return r.collectOpportunities(rows, opListOpenByOwner)
}

// ListOpenOpportunitiesClosingBetween returns open opportunities of an
// organization whose expected close date lies in [start, end]. A nil ownerID
// selects every owner.
func (r *Repository) ListOpenOpportunitiesClosingBetween(ctx context.Context, organizationID uuid.UUID, ownerID *uuid.UUID, start, end time.Time) ([]domain.Opportunity, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListClosing)
	}
	if organizationID == uuid.Nil {
		return nil, apperr.Validation("organizationId is required").WithOp(opListClosing)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+opportunityColumns+`
		FROM opportunities
		WHERE organization_id = $1
		  AND status = 'open'
		  AND expected_close_date BETWEEN $2 AND $3
		  AND ($4::uuid IS NULL OR owner_id = $4)
		ORDER BY id
	`, organizationID, start, end, ownerID)
	if err != nil {
		return nil, r.queryFailed(opListClosing, "list opportunities closing in period failed", err)
	}
	return r.collectOpportunities(rows, opListClosing)
}

// ListActiveUsers returns every active user across all organizations.
func (r *Repository) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListActiveUsers)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, branch_id, email, full_name, status
		FROM users
		WHERE status = 'active'
		ORDER BY organization_id, id
	`)
	if err != nil {
		return nil, r.queryFailed(opListActiveUsers, "list active users failed", err)
	}
	return r.collectUsers(rows, opListActiveUsers)
}

// ListActiveUsersByOrganization returns the active users of one organization.
func (r *Repository) ListActiveUsersByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.User, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListOrgUsers)
	}
	if organizationID == uuid.Nil {
		return nil, apperr.Validation("organizationId is required").WithOp(opListOrgUsers)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, branch_id, email, full_name, status
		FROM users
		WHERE status = 'active' AND organization_id = $1
		ORDER BY id
	`, organizationID)
	if err != nil {
		return nil, r.queryFailed(opListOrgUsers, "list organization users failed", err)
	}
	return r.collectUsers(rows, opListOrgUsers)
}

// ListOrganizations returns every tenant.
func (r *Repository) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListOrganizations)
	}

	rows, err := r.db.Query(ctx, `SELECT id, name FROM organizations ORDER BY id`)
	if err != nil {
		return nil, r.queryFailed(opListOrganizations, "list organizations failed", err)
	}
	defer rows.Close()

	items := make([]domain.Organization, 0)
	for rows.Next() {
		var org domain.Organization
		if scanErr := rows.Scan(&org.ID, &org.Name); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan organization failed: %v", scanErr)).WithOp(opListOrganizations)
		}
		items = append(items, org)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate organizations failed: %v", rowsErr)).WithOp(opListOrganizations)
	}

	return items, nil
}

func (r *Repository) collectOpportunities(rows pgx.Rows, op string) ([]domain.Opportunity, error) {
	defer rows.Close()

	items := make([]domain.Opportunity, 0)
	for rows.Next() {
		var (
			o                domain.Opportunity
			status, stage    string
			forecastCategory string
		)
		if scanErr := rows.Scan(
			&o.ID, &o.OrganizationID, &o.OwnerID, &o.Name, &status, &stage, &o.Amount, &o.WeightedAmount,
			&forecastCategory, &o.NextStep, &o.NextStepDate, &o.LastActivityAt, &o.ExpectedCloseDate,
		); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan opportunity failed: %v", scanErr)).WithOp(op)
		}
		o.Status = domain.OpportunityStatus(status)
		o.Stage = domain.Stage(stage)
		o.ForecastCategory = domain.ForecastCategory(forecastCategory)

		if err := r.validateOpportunity(o); err != nil {
			if r.log != nil {
				r.log.Warn("rejected malformed opportunity row", "operation", op, "opportunityId", o.ID, "error", err)
			}
			continue
		}
		items = append(items, o)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate opportunities failed: %v", rowsErr)).WithOp(op)
	}

	return items, nil
}

func (r *Repository) collectUsers(rows pgx.Rows, op string) ([]domain.User, error) {
	defer rows.Close()

	items := make([]domain.User, 0)
	for rows.Next() {
		var (
			u      domain.User
			status string
		)
		if scanErr := rows.Scan(&u.ID, &u.OrganizationID, &u.BranchID, &u.Email, &u.FullName, &status); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan user failed: %v", scanErr)).WithOp(op)
		}
		u.Status = domain.UserStatus(status)

		if err := r.val.Struct(u); err != nil {
			if r.log != nil {
				r.log.Warn("rejected malformed user row", "operation", op, "userId", u.ID, "error", err)
			}
			continue
		}
		items = append(items, u)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate users failed: %v", rowsErr)).WithOp(op)
	}

	return items, nil
}

// queryFailed logs a failed query and wraps it as an internal error.
func (r *Repository) queryFailed(op, message string, err error) error {
	if r.log != nil {
		r.log.DatabaseError(op, err)
	}
	return apperr.Wrap(apperr.KindInternal, fmt.Sprintf("%s: %v", message, err), err).WithOp(op)
}

func (r *Repository) validateOpportunity(o domain.Opportunity) error {
	if err := r.val.Struct(o); err != nil {
		return err
	}
	return o.ValidateAmounts()
}
