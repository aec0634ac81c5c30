package handler

import (
	"context"
	"strconv"
	"time"

	"pestcrm_backend/internal/forecast"
	"pestcrm_backend/internal/forecast/repository"
	"pestcrm_backend/internal/forecast/transport"
	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoleAdmin may read any user's snapshots and the organization rollup.
const RoleAdmin = "admin"

// organizationScope selects the organization rollup in the userId query parameter.
const organizationScope = "organization"

type SnapshotLister interface {
	List(ctx context.Context, f repository.ListFilter) ([]repository.Snapshot, error)
}

type HTTPHandler struct {
	svc SnapshotLister
}

func NewHTTPHandler(svc SnapshotLister) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/snapshots", h.ListSnapshots)
}

// ListSnapshots returns stored snapshots of the caller's organization.
// Without userId a member sees their own snapshots and an admin sees all.
func (h *HTTPHandler) ListSnapshots(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.HandleError(c, apperr.Forbidden("no organization on token"))
		return
	}

	filter := repository.ListFilter{OrganizationID: *tenantID}
	isAdmin := identity.HasRole(RoleAdmin)

	switch raw := c.Query("userId"); raw {
	case "":
		if !isAdmin {
			self := identity.UserID()
			filter.UserID = &self
		}
	case organizationScope:
		if !isAdmin {
			httpkit.HandleError(c, apperr.Forbidden("organization snapshots require admin role"))
			return
		}
		filter.OrgRollupOnly = true
	default:
		userID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("invalid userId"))
			return
		}
		if userID != identity.UserID() && !isAdmin {
			httpkit.HandleError(c, apperr.Forbidden("cannot view another user's snapshots"))
			return
		}
		filter.UserID = &userID
	}

	if raw := c.Query("periodStart"); raw != "" {
		start, err := time.Parse(forecast.DateLayout, raw)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("periodStart must be YYYY-MM-DD"))
			return
		}
		filter.PeriodStart = &start
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("invalid limit"))
			return
		}
		filter.Limit = limit
	}

	items, err := h.svc.List(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.NewSnapshotDTOs(items)})
}
