package services

import (
	"testing"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewIssueInitialState(t *testing.T) {
	ref := reference.Defaults()
	now := time.Now()
	residentID := primitive.NewObjectID()

	issue := NewIssue(CreateIssueParams{
		Category:     models.CategoryWaterLeak,
		Description:  "Burst pipe on the corner",
		Location:     "12 Loop St",
		ResidentID:   residentID,
		Municipality: "Mangaung Metropolitan Municipality",
		Ward:         2,
	}, ref, now)

	assert.Equal(t, models.StatusPending, issue.Status)
	assert.Equal(t, residentID, issue.ResidentID)
	assert.Nil(t, issue.ResolvedAt)
	assert.Nil(t, issue.Rating)
	assert.Nil(t, issue.AssignedTo)

	// Snapshots from the reference data.
	assert.Equal(t, ref.CouncillorForWard(2), issue.Councillor)
	assert.Equal(t, models.DeptWaterSanitation, issue.Department)
	assert.Equal(t, ref.PriorityForCategory(models.CategoryWaterLeak), issue.Priority)

	require.Len(t, issue.History, 1)
	created := issue.History[0]
	assert.Equal(t, models.HistoryCreated, created.Type)
	assert.Equal(t, models.ActorSystem, created.Actor)
	assert.Equal(t, "Issue reported.", created.Details)
	assert.Equal(t, now, created.Timestamp)
	assert.NotEmpty(t, created.ID)
}

func TestNewIssueKeepsExplicitPriority(t *testing.T) {
	ref := reference.Defaults()
	issue := NewIssue(CreateIssueParams{
		Category: models.CategoryPothole,
		Priority: models.PriorityHigh,
		Ward:     1,
	}, ref, time.Now())
	assert.Equal(t, models.PriorityHigh, issue.Priority)
}

func TestNewIssueUnknownWardFallsBack(t *testing.T) {
	ref := reference.Defaults()
	issue := NewIssue(CreateIssueParams{
		Category: models.CategoryPothole,
		Ward:     99,
	}, ref, time.Now())
	assert.Equal(t, reference.UnknownCouncillor, issue.Councillor)
}

func TestStatusChangeDetails(t *testing.T) {
	assert.Equal(t, "Status changed to Resolved.", StatusChangeDetails(models.StatusResolved, ""))
	assert.Equal(t, "Status changed to In Progress by James Kirk.", StatusChangeDetails(models.StatusInProgress, "James Kirk"))
}

func TestHistoryEventIDsUnique(t *testing.T) {
	now := time.Now()
	a := NewHistoryEvent(models.HistoryComment, models.ActorResident, "first", now)
	b := NewHistoryEvent(models.HistoryComment, models.ActorResident, "second", now)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestClassifyRatingFailure(t *testing.T) {
	satisfied := models.RatingSatisfied

	tests := []struct {
		name  string
		issue models.Issue
		want  error
	}{
		{"pending issue", models.Issue{Status: models.StatusPending}, ErrNotResolved},
		{"in progress issue", models.Issue{Status: models.StatusInProgress}, ErrNotResolved},
		{"already rated", models.Issue{Status: models.StatusResolved, Rating: &satisfied}, ErrAlreadyRated},
		{"resolved and unrated means the record vanished", models.Issue{Status: models.StatusResolved}, ErrIssueNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyRatingFailure(&tt.issue), tt.want)
		})
	}
}

func TestClassifyAssignFailure(t *testing.T) {
	workerID := primitive.NewObjectID()
	assert.ErrorIs(t, ClassifyAssignFailure(&models.Issue{AssignedTo: &workerID}), ErrAlreadyAssigned)
	assert.ErrorIs(t, ClassifyAssignFailure(&models.Issue{}), ErrIssueNotFound)
}

func TestIssueFilterQuery(t *testing.T) {
	residentID := primitive.NewObjectID()

	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.Equal(t, bson.M{}, IssueFilter{}.query())
	})

	t.Run("scoped filter", func(t *testing.T) {
		query := IssueFilter{
			Municipality: "Mangaung Metropolitan Municipality",
			Ward:         3,
			Status:       models.StatusPending,
			ResidentID:   &residentID,
		}.query()

		assert.Equal(t, "Mangaung Metropolitan Municipality", query["municipality"])
		assert.Equal(t, 3, query["ward"])
		assert.Equal(t, models.StatusPending, query["status"])
		assert.Equal(t, residentID, query["resident_id"])
	})

	t.Run("unassigned queue", func(t *testing.T) {
		query := IssueFilter{Unassigned: true}.query()
		assert.Contains(t, query, "assigned_to")
	})
}

func TestStatusUpdateResolvedAtStamp(t *testing.T) {
	now := time.Now()

	t.Run("resolving stamps resolved_at", func(t *testing.T) {
		update := StatusUpdate(models.StatusResolved, "", models.ActorMunicipality, now)

		set := update["$set"].(bson.M)
		assert.Equal(t, now, set["resolved_at"])
		assert.NotContains(t, update, "$unset")
	})

	t.Run("leaving resolved clears resolved_at", func(t *testing.T) {
		for _, status := range []models.IssueStatus{models.StatusPending, models.StatusInProgress} {
			update := StatusUpdate(status, "", models.ActorMunicipality, now)

			set := update["$set"].(bson.M)
			assert.NotContains(t, set, "resolved_at")
			require.Contains(t, update, "$unset")
			assert.Contains(t, update["$unset"].(bson.M), "resolved_at")
		}
	})
}

func TestAssignUpdateClearsResolvedAt(t *testing.T) {
	update := AssignUpdate(primitive.NewObjectID(), "Miles O'Brien", time.Now())

	set := update["$set"].(bson.M)
	assert.Equal(t, models.StatusInProgress, set["status"])
	assert.NotContains(t, set, "resolved_at")
	require.Contains(t, update, "$unset")
	assert.Contains(t, update["$unset"].(bson.M), "resolved_at")

	events := update["$push"].(bson.M)["history"].(bson.M)["$each"].([]models.HistoryEvent)
	require.Len(t, events, 2)
	assert.Equal(t, models.HistoryAssigned, events[0].Type)
	assert.Equal(t, models.HistoryStatusChanged, events[1].Type)
}
