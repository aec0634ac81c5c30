package alerts

import (
	"time"

	"github.com/google/uuid"
)

// DedupWindow is how far back unread notifications suppress a repeat alert.
const DedupWindow = 24 * time.Hour

const noRelatedEntity = "none"

// ExistingNotification is the slice of a stored notification the filter needs.
type ExistingNotification struct {
	UserID          uuid.UUID
	Title           string
	RelatedEntityID *uuid.UUID
}

// DedupKey identifies "the same issue" for a user. Message text is not part
// of the key, so changed amounts on an unchanged condition do not re-alert.
type DedupKey struct {
	UserID    uuid.UUID
	Title     string
	RelatedID string
}

func newDedupKey(userID uuid.UUID, title string, relatedID *uuid.UUID) DedupKey {
	related := noRelatedEntity
	if relatedID != nil {
		related = relatedID.String()
	}
	return DedupKey{UserID: userID, Title: title, RelatedID: related}
}

// Key returns the dedup key of an alert.
func (a UserAlert) Key() DedupKey {
	return newDedupKey(a.UserID, a.Title, a.RelatedEntityID)
}

// Key returns the dedup key of a stored notification.
func (n ExistingNotification) Key() DedupKey {
	return newDedupKey(n.UserID, n.Title, n.RelatedEntityID)
}

// FilterDuplicates drops alerts whose key matches a recent unread notification
// or an earlier alert in the same batch. Order of survivors is preserved.
func FilterDuplicates(candidates []UserAlert, existing []ExistingNotification) []UserAlert {
	seen := make(map[DedupKey]struct{}, len(existing)+len(candidates))
	for _, n := range existing {
		seen[n.Key()] = struct{}{}
	}

	out := make([]UserAlert, 0, len(candidates))
	for _, a := range candidates {
		key := a.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
