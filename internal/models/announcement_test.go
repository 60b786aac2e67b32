package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAnnouncementVisibleTo(t *testing.T) {
	mangaung := "Mangaung Metropolitan Municipality"
	dihlabeng := "Dihlabeng Local Municipality"

	wardScoped := Announcement{Municipality: mangaung, Ward: 3}
	assert.True(t, wardScoped.VisibleTo(mangaung, 3))
	assert.False(t, wardScoped.VisibleTo(mangaung, 4))
	assert.False(t, wardScoped.VisibleTo(dihlabeng, 3))

	municipalityWide := Announcement{Municipality: mangaung, Ward: AnnouncementAllWards}
	assert.True(t, municipalityWide.VisibleTo(mangaung, 1))
	assert.True(t, municipalityWide.VisibleTo(mangaung, 51))
	assert.False(t, municipalityWide.VisibleTo(dihlabeng, 1))
}

func TestAnnouncementTypeValidation(t *testing.T) {
	assert.True(t, AnnouncementMeeting.IsValid())
	assert.True(t, AnnouncementNews.IsValid())
	assert.True(t, AnnouncementAlert.IsValid())
	assert.False(t, AnnouncementType("Gossip").IsValid())
}

func TestIsMeeting(t *testing.T) {
	meeting := Announcement{Type: AnnouncementMeeting, Meeting: &MeetingDetails{Date: "2026-09-10"}}
	assert.True(t, meeting.IsMeeting())
	assert.False(t, (&Announcement{Type: AnnouncementNews}).IsMeeting())
}

func TestCanBeRetractedBy(t *testing.T) {
	author := primitive.NewObjectID()
	other := primitive.NewObjectID()
	announcement := Announcement{AuthorID: author}

	assert.True(t, announcement.CanBeRetractedBy(author, RoleWardCouncillor))
	assert.False(t, announcement.CanBeRetractedBy(other, RoleWardCouncillor))
	assert.True(t, announcement.CanBeRetractedBy(other, RoleAdmin))
}
