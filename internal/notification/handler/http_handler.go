package handler

import (
	"context"

	"pestcrm_backend/internal/notification/inapp"
	"pestcrm_backend/platform/apperr"
	"pestcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxPageSize = 50

// Inbox is the read side of a user's in-app notifications.
type Inbox interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]inapp.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type listQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1"`
}

type HTTPHandler struct {
	inbox Inbox
}

func NewHTTPHandler(inbox Inbox) *HTTPHandler {
	return &HTTPHandler{inbox: inbox}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread", h.CountUnread)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.PATCH("/read-all", h.MarkAllRead)
}

// List pages through the caller's notifications, newest first.
func (h *HTTPHandler) List(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.HandleError(c, apperr.Validation("page and limit must be positive integers"))
		return
	}
	q.Limit = min(q.Limit, maxPageSize)

	items, total, err := h.inbox.List(c.Request.Context(), identity.UserID(), q.Page, q.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": total, "page": q.Page})
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	count, err := h.inbox.CountUnread(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

// MarkRead marks one of the caller's notifications as read. Read
// notifications stop suppressing new alerts with the same key.
func (h *HTTPHandler) MarkRead(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid id"))
		return
	}
	if httpkit.HandleError(c, h.inbox.MarkRead(c.Request.Context(), identity.UserID(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.inbox.MarkAllRead(c.Request.Context(), identity.UserID())) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
