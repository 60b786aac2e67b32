// internal/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AnnouncementType string

const (
	AnnouncementMeeting AnnouncementType = "Meeting"
	AnnouncementNews    AnnouncementType = "News"
	AnnouncementAlert   AnnouncementType = "Alert"
)

func (t AnnouncementType) IsValid() bool {
	switch t {
	case AnnouncementMeeting, AnnouncementNews, AnnouncementAlert:
		return true
	}
	return false
}

// AnnouncementAllWards is the ward sentinel for municipality-wide scope.
const AnnouncementAllWards = 0

// MeetingDetails is the optional sub-record carried by Meeting
// announcements.
type MeetingDetails struct {
	Date     string `bson:"date" json:"date"`         // YYYY-MM-DD
	Time     string `bson:"time" json:"time"`         // HH:MM
	Location string `bson:"location" json:"location"`
}

// Announcement is a notice published by municipal staff. Announcements
// are created and retracted as whole units, never edited in place.
type Announcement struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title   string             `bson:"title" json:"title" validate:"required,min=5,max=200"`
	Content string             `bson:"content" json:"content" validate:"required,min=10,max=2000"`

	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	AuthorRole Role               `bson:"author_role" json:"author_role"`

	Type AnnouncementType `bson:"type" json:"type"`

	// Ward scopes the announcement to one ward; AnnouncementAllWards
	// targets the whole municipality.
	Ward         int    `bson:"ward" json:"ward"`
	Municipality string `bson:"municipality" json:"municipality"`

	Meeting *MeetingDetails `bson:"meeting,omitempty" json:"meeting,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (a *Announcement) IsMeeting() bool {
	return a.Type == AnnouncementMeeting && a.Meeting != nil
}

// VisibleTo reports whether a resident of the given municipality and
// ward should see this announcement.
func (a *Announcement) VisibleTo(municipality string, ward int) bool {
	if a.Municipality != municipality {
		return false
	}
	return a.Ward == AnnouncementAllWards || a.Ward == ward
}

// CanBeRetractedBy allows removal by the author or any admin.
func (a *Announcement) CanBeRetractedBy(userID primitive.ObjectID, role Role) bool {
	if role.HasPermission(PermissionManageAnnouncements) {
		return true
	}
	return a.AuthorID == userID
}

func (a *Announcement) IsRecent() bool {
	return time.Since(a.CreatedAt) < 7*24*time.Hour
}
