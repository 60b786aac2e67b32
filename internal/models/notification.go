// internal/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeStatusChange = "status_change"
	NotificationTypeAssignment   = "assignment"
	NotificationTypeComment      = "comment"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeSystem       = "system"
)

// Notification is an in-app notification stored for a user.
type Notification struct {
	ID      primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID  primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Title   string              `bson:"title" json:"title"`
	Body    string              `bson:"body" json:"body"`
	Type    string              `bson:"type" json:"type"`
	IssueID *primitive.ObjectID `bson:"issue_id,omitempty" json:"issue_id,omitempty"`

	IsRead    bool       `bson:"is_read" json:"is_read"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ReadAt    *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
