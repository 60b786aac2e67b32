package services

import (
	"context"
	"fmt"
	"time"

	"freestate-servicedelivery/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationService stores in-app notifications and fans out the
// lifecycle events residents care about: status changes on their
// reports, assignment notices for workers, new announcements.
type NotificationService struct {
	notifications *mongo.Collection
	users         *mongo.Collection
}

func NewNotificationService(db *mongo.Database) *NotificationService {
	return &NotificationService{
		notifications: db.Collection("notifications"),
		users:         db.Collection("users"),
	}
}

func (s *NotificationService) create(ctx context.Context, notification *models.Notification) {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	if _, err := s.notifications.InsertOne(ctx, notification); err != nil {
		// Notification delivery never blocks the triggering operation.
		logrus.WithError(err).WithField("user_id", notification.UserID.Hex()).Warn("Failed to store notification")
	}
}

// NotifyStatusChange tells the reporting resident their issue moved.
func (s *NotificationService) NotifyStatusChange(ctx context.Context, issue *models.Issue, newStatus models.IssueStatus) {
	s.create(ctx, &models.Notification{
		UserID:  issue.ResidentID,
		Title:   "Issue status updated",
		Body:    fmt.Sprintf("Your %s report at %s is now %s.", issue.Category, issue.Location, newStatus),
		Type:    models.NotificationTypeStatusChange,
		IssueID: &issue.ID,
	})
}

// NotifyAssignment tells a worker they picked up a new task.
func (s *NotificationService) NotifyAssignment(ctx context.Context, issue *models.Issue, workerID primitive.ObjectID) {
	s.create(ctx, &models.Notification{
		UserID:  workerID,
		Title:   "New task assigned",
		Body:    fmt.Sprintf("You are now assigned to a %s report in ward %d.", issue.Category, issue.Ward),
		Type:    models.NotificationTypeAssignment,
		IssueID: &issue.ID,
	})
}

// NotifyComment tells the reporting resident about a staff comment.
// Comments by the resident themselves are not echoed back.
func (s *NotificationService) NotifyComment(ctx context.Context, issue *models.Issue, actor models.HistoryActor) {
	if actor == models.ActorResident {
		return
	}
	s.create(ctx, &models.Notification{
		UserID:  issue.ResidentID,
		Title:   "New comment on your report",
		Body:    fmt.Sprintf("The municipality commented on your %s report at %s.", issue.Category, issue.Location),
		Type:    models.NotificationTypeComment,
		IssueID: &issue.ID,
	})
}

// NotifyAnnouncement fans an announcement out to every resident it is
// visible to. Runs the recipient query itself so callers stay simple.
func (s *NotificationService) NotifyAnnouncement(ctx context.Context, announcement *models.Announcement) {
	filter := bson.M{
		"role":         models.RoleResident,
		"municipality": announcement.Municipality,
	}
	if announcement.Ward != models.AnnouncementAllWards {
		filter["ward"] = announcement.Ward
	}

	cursor, err := s.users.Find(ctx, filter)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load announcement recipients")
		return
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var recipient models.User
		if err := cursor.Decode(&recipient); err != nil {
			continue
		}
		s.create(ctx, &models.Notification{
			UserID: recipient.ID,
			Title:  fmt.Sprintf("%s: %s", announcement.Type, announcement.Title),
			Body:   announcement.Content,
			Type:   models.NotificationTypeAnnouncement,
		})
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(100)
	cursor, err := s.notifications.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notifications.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
}

// MarkRead marks one notification read. The user filter keeps one user
// from touching another's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now()
	result, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead marks everything read for the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now()
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now}},
	)
	return err
}
