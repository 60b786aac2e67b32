// internal/services/issue.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mutation errors. Handlers map these onto HTTP status codes.
var (
	ErrIssueNotFound   = errors.New("issue not found")
	ErrAlreadyAssigned = errors.New("issue is already assigned to a worker")
	ErrNotResolved     = errors.New("issue is not resolved yet")
	ErrAlreadyRated    = errors.New("issue has already been rated")
)

// IssueService owns the issues collection. Every mutation is a single
// atomic document update whose preconditions are part of the filter, so
// two concurrent writers cannot violate the lifecycle invariants.
type IssueService struct {
	issues *mongo.Collection
	ref    *reference.Set
}

func NewIssueService(issueCollection *mongo.Collection, ref *reference.Set) *IssueService {
	return &IssueService{
		issues: issueCollection,
		ref:    ref,
	}
}

// CreateIssueParams is the resident-supplied part of a new report.
type CreateIssueParams struct {
	Category     models.IssueCategory
	Description  string
	Location     string
	Photo        string
	Priority     models.IssuePriority // optional; defaulted from category
	ResidentID   primitive.ObjectID
	Municipality string
	Ward         int
}

// NewIssue builds a fresh issue record from a draft. Department and
// councillor are resolved once, here, from the reference data and kept
// as a historical snapshot on the record.
func NewIssue(params CreateIssueParams, ref *reference.Set, now time.Time) models.Issue {
	priority := params.Priority
	if !priority.IsValid() {
		priority = ref.PriorityForCategory(params.Category)
	}

	return models.Issue{
		ID:           primitive.NewObjectID(),
		Category:     params.Category,
		Description:  params.Description,
		Location:     params.Location,
		Photo:        params.Photo,
		Status:       models.StatusPending,
		Priority:     priority,
		ReportedAt:   now,
		ResidentID:   params.ResidentID,
		Municipality: params.Municipality,
		Ward:         params.Ward,
		Councillor:   ref.CouncillorForWard(params.Ward),
		Department:   ref.DepartmentForCategory(params.Category),
		History: []models.HistoryEvent{
			NewHistoryEvent(models.HistoryCreated, models.ActorSystem, "Issue reported.", now),
		},
	}
}

// NewHistoryEvent builds one audit-trail entry.
func NewHistoryEvent(eventType models.HistoryEventType, actor models.HistoryActor, details string, now time.Time) models.HistoryEvent {
	return models.HistoryEvent{
		ID:        uuid.New().String(),
		Timestamp: now,
		Type:      eventType,
		Actor:     actor,
		Details:   details,
	}
}

// StatusChangeDetails renders the history line for a status change,
// optionally naming the staff member who made it.
func StatusChangeDetails(status models.IssueStatus, actorName string) string {
	if actorName != "" {
		return fmt.Sprintf("Status changed to %s by %s.", status, actorName)
	}
	return fmt.Sprintf("Status changed to %s.", status)
}

// Create inserts a new issue built from the draft.
func (s *IssueService) Create(ctx context.Context, params CreateIssueParams) (*models.Issue, error) {
	issue := NewIssue(params, s.ref, time.Now())

	if _, err := s.issues.InsertOne(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to insert issue: %w", err)
	}

	return &issue, nil
}

// ByID fetches a single issue.
func (s *IssueService) ByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to fetch issue: %w", err)
	}
	return &issue, nil
}

// IssueFilter narrows a listing to one viewer scope.
type IssueFilter struct {
	Municipality string
	Ward         int
	Department   models.Department
	Status       models.IssueStatus
	Category     models.IssueCategory
	Priority     models.IssuePriority
	ResidentID   *primitive.ObjectID
	AssignedTo   *primitive.ObjectID
	Unassigned   bool
}

func (f IssueFilter) query() bson.M {
	query := bson.M{}
	if f.Municipality != "" {
		query["municipality"] = f.Municipality
	}
	if f.Ward != 0 {
		query["ward"] = f.Ward
	}
	if f.Department != "" {
		query["department"] = f.Department
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Priority != "" {
		query["priority"] = f.Priority
	}
	if f.ResidentID != nil {
		query["resident_id"] = *f.ResidentID
	}
	if f.AssignedTo != nil {
		query["assigned_to"] = *f.AssignedTo
	}
	if f.Unassigned {
		query["assigned_to"] = nil
	}
	return query
}

// List returns the issues in scope, newest first.
func (s *IssueService) List(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reported_at", Value: -1}})
	cursor, err := s.issues.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeIssues(ctx, cursor), nil
}

// decodeIssues drains a cursor one document at a time so a single
// malformed record degrades to a logged skip instead of failing the
// whole listing.
func decodeIssues(ctx context.Context, cursor *mongo.Cursor) []models.Issue {
	issues := []models.Issue{}
	for cursor.Next(ctx) {
		var issue models.Issue
		if err := cursor.Decode(&issue); err != nil {
			logrus.WithError(err).Warn("skipping malformed issue document")
			continue
		}
		issues = append(issues, issue)
	}
	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Warn("issue cursor terminated early")
	}
	return issues
}

// UpdateStatus moves the issue to a new status and appends one
// STATUS_CHANGED history entry. resolved_at is stamped on the
// transition into Resolved and cleared on any other target, keeping
// the status/resolved_at invariant intact.
func (s *IssueService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, actorName string, actor models.HistoryActor) (*models.Issue, error) {
	update := StatusUpdate(status, actorName, actor, time.Now())
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update, func(*models.Issue) error {
		return ErrIssueNotFound
	})
}

// StatusUpdate builds the update document for a status change. The
// resolved_at stamp lives in the same document as the status change so
// "resolved_at set iff Resolved" holds after every write.
func StatusUpdate(status models.IssueStatus, actorName string, actor models.HistoryActor, now time.Time) bson.M {
	set := bson.M{"status": status}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": NewHistoryEvent(models.HistoryStatusChanged, actor, StatusChangeDetails(status, actorName), now)},
	}
	if status == models.StatusResolved {
		set["resolved_at"] = now
	} else {
		update["$unset"] = bson.M{"resolved_at": ""}
	}
	return update
}

// Assign hands the issue to a worker. Assignment always implies work
// has begun, so the status is forced to In Progress and two history
// entries are appended (ASSIGNED, then STATUS_CHANGED). Reassignment
// is not modeled; an already-assigned issue is rejected.
func (s *IssueService) Assign(ctx context.Context, id, workerID primitive.ObjectID, workerName string) (*models.Issue, error) {
	filter := bson.M{"_id": id, "assigned_to": nil}
	return s.findOneAndUpdate(ctx, filter, AssignUpdate(workerID, workerName, time.Now()), ClassifyAssignFailure)
}

// AssignUpdate builds the update document for an assignment. Since the
// status is forced to In Progress, any stale resolved_at is cleared in
// the same write, as a status change would do.
func AssignUpdate(workerID primitive.ObjectID, workerName string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"assigned_to": workerID,
			"status":      models.StatusInProgress,
		},
		"$unset": bson.M{"resolved_at": ""},
		"$push": bson.M{
			"history": bson.M{
				"$each": []models.HistoryEvent{
					NewHistoryEvent(models.HistoryAssigned, models.ActorSystem, fmt.Sprintf("Issue assigned to %s.", workerName), now),
					NewHistoryEvent(models.HistoryStatusChanged, models.ActorSystem, StatusChangeDetails(models.StatusInProgress, ""), now),
				},
			},
		},
	}
}

// AddWorkPhoto attaches a before- or after-work photo and appends a
// PHOTO_ADDED history entry. Photos are never removed or replaced.
func (s *IssueService) AddWorkPhoto(ctx context.Context, id primitive.ObjectID, photo string, phase models.WorkPhotoPhase, workerName string) (*models.Issue, error) {
	now := time.Now()

	field := "before_work_photo"
	label := "Before Work"
	if phase == models.PhotoPhaseAfter {
		field = "after_work_photo"
		label = "After Work"
	}

	update := bson.M{
		"$set": bson.M{field: photo},
		"$push": bson.M{
			"history": NewHistoryEvent(models.HistoryPhotoAdded, models.ActorMunicipality, fmt.Sprintf("%s photo added by %s.", label, workerName), now),
		},
	}

	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update, func(*models.Issue) error {
		return ErrIssueNotFound
	})
}

// AddComment appends a COMMENT history entry without touching status.
func (s *IssueService) AddComment(ctx context.Context, id primitive.ObjectID, text string, actor models.HistoryActor) (*models.Issue, error) {
	update := bson.M{
		"$push": bson.M{
			"history": NewHistoryEvent(models.HistoryComment, actor, text, time.Now()),
		},
	}

	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update, func(*models.Issue) error {
		return ErrIssueNotFound
	})
}

// Rate records the resident's satisfaction rating. The transition is
// guarded: only a resolved, not-yet-rated issue can be rated, and the
// precondition sits in the Mongo filter so the guard is atomic.
func (s *IssueService) Rate(ctx context.Context, id primitive.ObjectID, rating models.ResidentRating) (*models.Issue, error) {
	now := time.Now()

	filter := bson.M{
		"_id":    id,
		"status": models.StatusResolved,
		"rating": nil,
	}
	update := bson.M{
		"$set": bson.M{"rating": rating},
		"$push": bson.M{
			"history": NewHistoryEvent(models.HistoryRated, models.ActorResident, fmt.Sprintf("Resident rated this as %s.", rating), now),
		},
	}

	return s.findOneAndUpdate(ctx, filter, update, ClassifyRatingFailure)
}

// ClassifyRatingFailure explains why a guarded rating update matched
// nothing, given the issue as it currently stands.
func ClassifyRatingFailure(issue *models.Issue) error {
	if !issue.IsResolved() {
		return ErrNotResolved
	}
	if issue.IsRated() {
		return ErrAlreadyRated
	}
	return ErrIssueNotFound
}

// ClassifyAssignFailure explains why a guarded assignment matched
// nothing.
func ClassifyAssignFailure(issue *models.Issue) error {
	if issue.IsAssigned() {
		return ErrAlreadyAssigned
	}
	return ErrIssueNotFound
}

// findOneAndUpdate runs a guarded update and returns the updated
// record. When the filter matched nothing the issue is re-fetched by
// id alone and classify turns its current state into a typed error.
func (s *IssueService) findOneAndUpdate(ctx context.Context, filter, update bson.M, classify func(*models.Issue) error) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue)
	if err == nil {
		return &issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}

	id, ok := filter["_id"]
	if !ok {
		return nil, ErrIssueNotFound
	}

	var current models.Issue
	err = s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to fetch issue: %w", err)
	}

	return nil, classify(&current)
}
