package inapp

import (
	"context"
	"fmt"
	"time"

	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	opCreateBatch = "notification.inapp.repository.create_batch"
	opListUnread  = "notification.inapp.repository.list_unread_since"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"

	errRepoNotConfigured = "in-app notification repository not configured"
	errUserIDRequired    = "userId is required"
)

type Notification struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organizationId"`
	UserID            uuid.UUID  `json:"userId"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Type              string     `json:"type"`
	RelatedEntityType *string    `json:"relatedEntityType,omitempty"`
	RelatedEntityID   *uuid.UUID `json:"relatedEntityId,omitempty"`
	IsRead            bool       `json:"isRead"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type CreateParams struct {
	OrganizationID    uuid.UUID
	UserID            uuid.UUID
	Title             string
	Message           string
	Type              string
	RelatedEntityType *string
	RelatedEntityID   *uuid.UUID
}

// UnreadKey is the part of an unread notification used to suppress repeats.
type UnreadKey struct {
	UserID          uuid.UUID
	Title           string
	RelatedEntityID *uuid.UUID
}

type Repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) *Repository {
	return &Repository{db: q}
}

// CreateBatch inserts all notifications in one transaction using COPY.
// Either every row is stored or none is.
func (r *Repository) CreateBatch(ctx context.Context, items []CreateParams) (int, error) {
	if r == nil || r.db == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCreateBatch)
	}
	if len(items) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(items))
	for _, p := range items {
		if p.OrganizationID == uuid.Nil || p.UserID == uuid.Nil {
			return 0, apperr.Validation("organizationId and userId are required").WithOp(opCreateBatch)
		}
		if p.Title == "" || p.Message == "" {
			return 0, apperr.Validation("title and message are required").WithOp(opCreateBatch)
		}
		kind := p.Type
		if kind == "" {
			kind = "info"
		}
		rows = append(rows, []any{p.OrganizationID, p.UserID, p.Title, p.Message, kind, p.RelatedEntityType, p.RelatedEntityID})
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("begin notification batch failed: %v", err)).WithOp(opCreateBatch)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"notifications"},
		[]string{"organization_id", "user_id", "title", "message", "type", "related_entity_type", "related_entity_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("copy notifications failed: %v", err)).WithOp(opCreateBatch)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperr.Internal(fmt.Sprintf("commit notification batch failed: %v", err)).WithOp(opCreateBatch)
	}

	return int(copied), nil
}

// ListUnreadSince returns the dedup keys of unread notifications created at or after since.
func (r *Repository) ListUnreadSince(ctx context.Context, since time.Time) ([]UnreadKey, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListUnread)
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, title, related_entity_id
		FROM notifications
		WHERE is_read = FALSE AND created_at >= $1
	`, since)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list recent unread notifications failed: %v", err)).WithOp(opListUnread)
	}
	defer rows.Close()

	items := make([]UnreadKey, 0)
	for rows.Next() {
		var k UnreadKey
		if scanErr := rows.Scan(&k.UserID, &k.Title, &k.RelatedEntityID); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan unread notification failed: %v", scanErr)).WithOp(opListUnread)
		}
		items = append(items, k)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate unread notifications failed: %v", rowsErr)).WithOp(opListUnread)
	}

	return items, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	if r == nil || r.db == nil {
		return nil, 0, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if userID == uuid.Nil {
		return nil, 0, apperr.Validation(errUserIDRequired).WithOp(opList)
	}

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, user_id, title, message, type, related_entity_type, related_entity_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if scanErr := rows.Scan(&n.ID, &n.OrganizationID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.RelatedEntityType, &n.RelatedEntityID, &n.IsRead, &n.CreatedAt); scanErr != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notifications failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rowsErr)).WithOp(opList)
	}

	return items, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if r == nil || r.db == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCountUnread)
	}
	if userID == uuid.Nil {
		return 0, apperr.Validation(errUserIDRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread notifications failed: %v", err)).WithOp(opCountUnread)
	}

	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if r == nil || r.db == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkRead)
	}
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("userId and notificationId are required").WithOp(opMarkRead)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification read failed: %v", err)).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}

	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if r == nil || r.db == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkAllRead)
	}
	if userID == uuid.Nil {
		return apperr.Validation(errUserIDRequired).WithOp(opMarkAllRead)
	}

	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opMarkAllRead)
	}

	return nil
}
