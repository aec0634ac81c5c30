package inapp

import (
	"context"
	"time"

	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is implemented by *Repository.
type Store interface {
	CreateBatch(ctx context.Context, items []CreateParams) (int, error)
	ListUnreadSince(ctx context.Context, since time.Time) ([]UnreadKey, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// Service is the only writer of in-app notifications. The alert job sends
// through it, and the HTTP handler reads and acknowledges through it.
type Service struct {
	repo Store
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SendBatch stores items in one write and returns how many were stored. A
// failed write stores nothing.
func (s *Service) SendBatch(ctx context.Context, items []CreateParams) (int, error) {
	if s == nil || s.repo == nil {
		return 0, apperr.Internal("in-app notification service not configured")
	}
	if len(items) == 0 {
		return 0, nil
	}

	created, err := s.repo.CreateBatch(ctx, items)
	if err != nil {
		if s.log != nil {
			s.log.WithContext(ctx).Error("notification batch not stored", "count", len(items), "error", err)
		}
		return 0, err
	}
	return created, nil
}

// RecentUnread returns the dedup keys of unread notifications newer than since.
func (s *Service) RecentUnread(ctx context.Context, since time.Time) ([]UnreadKey, error) {
	return s.repo.ListUnreadSince(ctx, since)
}

// List returns one page of a user's notifications and the user's total.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// pageWindow turns a 1-based page into LIMIT and OFFSET.
func pageWindow(page, pageSize int) (limit, offset int) {
	page = max(page, 1)
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}
