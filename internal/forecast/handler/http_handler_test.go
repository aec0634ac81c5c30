package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pestcrm_backend/internal/forecast/repository"
	"pestcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLister struct {
	filter repository.ListFilter
	calls  int
}

func (r *recordingLister) List(_ context.Context, f repository.ListFilter) ([]repository.Snapshot, error) {
	r.filter = f
	r.calls++
	return []repository.Snapshot{}, nil
}

func newEngine(lister SnapshotLister, userID uuid.UUID, tenantID *uuid.UUID, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		httpkit.SetIdentity(c, httpkit.NewIdentity(userID, tenantID, roles...))
		c.Next()
	})
	NewHTTPHandler(lister).RegisterRoutes(engine.Group("/forecast"))
	return engine
}

func get(engine *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestListSnapshotsDefaultsToCallerForMembers(t *testing.T) {
	lister := &recordingLister{}
	user, org := uuid.New(), uuid.New()

	w := get(newEngine(lister, user, &org), "/forecast/snapshots?periodStart=2026-10-01")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, lister.filter.UserID)
	assert.Equal(t, user, *lister.filter.UserID)
	assert.Equal(t, org, lister.filter.OrganizationID)
	require.NotNil(t, lister.filter.PeriodStart)
	assert.Equal(t, "2026-10-01", lister.filter.PeriodStart.Format("2006-01-02"))
}

func TestListSnapshotsAdminSeesOrganizationRollup(t *testing.T) {
	lister := &recordingLister{}
	org := uuid.New()

	w := get(newEngine(lister, uuid.New(), &org, RoleAdmin), "/forecast/snapshots?userId=organization")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, lister.filter.OrgRollupOnly)
	assert.Nil(t, lister.filter.UserID)
}

func TestListSnapshotsRejectsOtherUserForMembers(t *testing.T) {
	lister := &recordingLister{}
	org := uuid.New()

	w := get(newEngine(lister, uuid.New(), &org), "/forecast/snapshots?userId="+uuid.NewString())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, lister.calls)
}

func TestListSnapshotsRequiresTenant(t *testing.T) {
	lister := &recordingLister{}

	w := get(newEngine(lister, uuid.New(), nil), "/forecast/snapshots")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListSnapshotsRejectsBadPeriod(t *testing.T) {
	lister := &recordingLister{}
	org := uuid.New()

	w := get(newEngine(lister, uuid.New(), &org), "/forecast/snapshots?periodStart=10/01/2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
