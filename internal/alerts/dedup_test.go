package alerts

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDuplicatesDropsMatchingUnread(t *testing.T) {
	userID := uuid.New()
	oppID := uuid.New()
	entityType := RelatedEntityOpportunity

	stalled := UserAlert{UserID: userID, Title: TitleStalled, Message: "new wording", RelatedEntityType: &entityType, RelatedEntityID: &oppID}
	late := UserAlert{UserID: userID, Title: TitleLateStageRisk, RelatedEntityType: &entityType, RelatedEntityID: &oppID}
	coverage := UserAlert{UserID: userID, Title: TitleLowCoverage}

	existing := []ExistingNotification{
		{UserID: userID, Title: TitleStalled, RelatedEntityID: &oppID},
		{UserID: userID, Title: TitleLowCoverage},
	}

	got := FilterDuplicates([]UserAlert{stalled, late, coverage}, existing)
	require.Len(t, got, 1)
	assert.Equal(t, TitleLateStageRisk, got[0].Title)
}

func TestFilterDuplicatesKeysOnUserAndEntity(t *testing.T) {
	oppID := uuid.New()
	otherOpp := uuid.New()
	userID := uuid.New()

	existing := []ExistingNotification{{UserID: userID, Title: TitleStalled, RelatedEntityID: &oppID}}
	candidates := []UserAlert{
		{UserID: uuid.New(), Title: TitleStalled, RelatedEntityID: &oppID},
		{UserID: userID, Title: TitleStalled, RelatedEntityID: &otherOpp},
		{UserID: userID, Title: TitleStalled},
	}

	assert.Len(t, FilterDuplicates(candidates, existing), 3)
}

func TestFilterDuplicatesWithinBatch(t *testing.T) {
	userID := uuid.New()
	a := UserAlert{UserID: userID, Title: TitleLowCoverage}

	got := FilterDuplicates([]UserAlert{a, a}, nil)
	assert.Len(t, got, 1)
}

func TestDedupKeyUsesNoneForMissingEntity(t *testing.T) {
	key := UserAlert{UserID: uuid.New(), Title: TitleLowCoverage}.Key()
	assert.Equal(t, "none", key.RelatedID)
}
