package services

import (
	"context"
	"errors"
	"time"

	"freestate-servicedelivery/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrNotAuthor            = errors.New("announcement can only be retracted by its author")
)

// AnnouncementService manages municipal announcements: meetings, news
// and alerts published by staff to residents of a municipality or a
// single ward.
type AnnouncementService struct {
	announcements *mongo.Collection
}

func NewAnnouncementService(db *mongo.Database) *AnnouncementService {
	return &AnnouncementService{announcements: db.Collection("announcements")}
}

// CreateAnnouncementParams is the validated input for Publish.
type CreateAnnouncementParams struct {
	Title        string
	Content      string
	Type         models.AnnouncementType
	Ward         int // AnnouncementAllWards targets the whole municipality
	Municipality string
	AuthorID     primitive.ObjectID
	AuthorName   string
	AuthorRole   models.Role
	Meeting      *models.MeetingDetails
}

// NewAnnouncement builds an announcement record without persisting it.
func NewAnnouncement(params CreateAnnouncementParams, now time.Time) *models.Announcement {
	announcement := &models.Announcement{
		ID:           primitive.NewObjectID(),
		Title:        params.Title,
		Content:      params.Content,
		Type:         params.Type,
		Ward:         params.Ward,
		Municipality: params.Municipality,
		AuthorID:     params.AuthorID,
		AuthorName:   params.AuthorName,
		AuthorRole:   params.AuthorRole,
		CreatedAt:    now,
	}
	if params.Type == models.AnnouncementMeeting {
		announcement.Meeting = params.Meeting
	}
	return announcement
}

func (s *AnnouncementService) Publish(ctx context.Context, announcement *models.Announcement) error {
	_, err := s.announcements.InsertOne(ctx, announcement)
	return err
}

// ListVisible returns announcements a resident of the given
// municipality and ward should see: municipality-wide ones plus those
// targeting their ward, newest first.
func (s *AnnouncementService) ListVisible(ctx context.Context, municipality string, ward int) ([]models.Announcement, error) {
	filter := bson.M{
		"municipality": municipality,
		"ward":         bson.M{"$in": []int{models.AnnouncementAllWards, ward}},
	}
	return s.find(ctx, filter)
}

// ListByMunicipality returns every announcement in a municipality,
// regardless of ward targeting. Staff view.
func (s *AnnouncementService) ListByMunicipality(ctx context.Context, municipality string) ([]models.Announcement, error) {
	return s.find(ctx, bson.M{"municipality": municipality})
}

func (s *AnnouncementService) find(ctx context.Context, filter bson.M) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.announcements.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	announcements := []models.Announcement{}
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

// RetractAny deletes an announcement regardless of author. Admin path.
func (s *AnnouncementService) RetractAny(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.announcements.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// Retract deletes an announcement. Only the author may retract;
// the authorship check lives in the delete filter so a concurrent
// retraction cannot slip past it.
func (s *AnnouncementService) Retract(ctx context.Context, id, authorID primitive.ObjectID) error {
	result, err := s.announcements.DeleteOne(ctx, bson.M{"_id": id, "author_id": authorID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Distinguish a missing record from someone else's record.
		count, err := s.announcements.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrAnnouncementNotFound
		}
		return ErrNotAuthor
	}
	return nil
}
