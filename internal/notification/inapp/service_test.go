package inapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"pestcrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	batchErr    error
	batches     [][]CreateParams
	limit       int
	offset      int
	unreadSince time.Time
}

func (s *stubStore) CreateBatch(_ context.Context, items []CreateParams) (int, error) {
	if s.batchErr != nil {
		return 0, s.batchErr
	}
	s.batches = append(s.batches, items)
	return len(items), nil
}

func (s *stubStore) ListUnreadSince(_ context.Context, since time.Time) ([]UnreadKey, error) {
	s.unreadSince = since
	return nil, nil
}

func (s *stubStore) List(_ context.Context, _ uuid.UUID, limit, offset int) ([]Notification, int, error) {
	s.limit, s.offset = limit, offset
	return nil, 0, nil
}

func (s *stubStore) CountUnread(context.Context, uuid.UUID) (int, error)  { return 0, nil }
func (s *stubStore) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (s *stubStore) MarkAllRead(context.Context, uuid.UUID) error         { return nil }

func TestSendBatchReportsCreatedCount(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, logger.New("development"))

	created, err := svc.SendBatch(context.Background(), []CreateParams{
		{OrganizationID: uuid.New(), UserID: uuid.New(), Title: "Stalled Opportunity", Message: "m"},
		{OrganizationID: uuid.New(), UserID: uuid.New(), Title: "Low Pipeline Coverage", Message: "m"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, store.batches, 1)
}

func TestSendBatchReturnsZeroOnFailure(t *testing.T) {
	svc := NewService(&stubStore{batchErr: errors.New("copy failed")}, logger.New("development"))

	created, err := svc.SendBatch(context.Background(), []CreateParams{{Title: "x", Message: "y"}})
	require.Error(t, err)
	assert.Equal(t, 0, created)
}

func TestListClampsPaging(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, nil)

	_, _, err := svc.List(context.Background(), uuid.New(), 3, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, store.limit)
	assert.Equal(t, 200, store.offset)

	_, _, err = svc.List(context.Background(), uuid.New(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, store.limit)
	assert.Equal(t, 0, store.offset)
}

func TestSendBatchSkipsEmptyBatch(t *testing.T) {
	store := &stubStore{}
	created, err := NewService(store, nil).SendBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, store.batches)
}
