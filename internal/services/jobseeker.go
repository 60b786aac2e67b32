package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"freestate-servicedelivery/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotRegistered = errors.New("resident is not on the jobseeker registry")

// JobseekerService maintains the opt-in jobseeker registry. A resident
// has at most one entry; registering again replaces the previous one.
type JobseekerService struct {
	jobseekers *mongo.Collection
}

func NewJobseekerService(db *mongo.Database) *JobseekerService {
	return &JobseekerService{jobseekers: db.Collection("jobseekers")}
}

// RegisterParams is the validated input for Register. Skills is the
// resident's own free-text description of what work they can do.
type RegisterParams struct {
	ResidentID   primitive.ObjectID
	ResidentName string
	Municipality string
	Ward         int
	ContactInfo  string
	Skills       string
}

// NewJobseekerEntry builds the registry record for a registration.
// Registering again produces a whole new record, including a fresh
// registration timestamp.
func NewJobseekerEntry(params RegisterParams, now time.Time) models.Jobseeker {
	return models.Jobseeker{
		ResidentID:   params.ResidentID,
		ResidentName: params.ResidentName,
		Municipality: params.Municipality,
		Ward:         params.Ward,
		ContactInfo:  strings.TrimSpace(params.ContactInfo),
		Skills:       strings.TrimSpace(params.Skills),
		RegisteredAt: now,
	}
}

// Register upserts the resident's registry entry keyed by resident id,
// so repeated registration replaces the previous entry.
func (s *JobseekerService) Register(ctx context.Context, params RegisterParams, now time.Time) (*models.Jobseeker, error) {
	entry := NewJobseekerEntry(params, now)

	update := bson.M{
		"$set": bson.M{
			"resident_name": entry.ResidentName,
			"municipality":  entry.Municipality,
			"ward":          entry.Ward,
			"contact_info":  entry.ContactInfo,
			"skills":        entry.Skills,
			"registered_at": entry.RegisteredAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.jobseekers.UpdateOne(ctx, bson.M{"resident_id": entry.ResidentID}, update, opts); err != nil {
		return nil, err
	}

	var saved models.Jobseeker
	if err := s.jobseekers.FindOne(ctx, bson.M{"resident_id": entry.ResidentID}).Decode(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Deregister removes the resident's entry.
func (s *JobseekerService) Deregister(ctx context.Context, residentID primitive.ObjectID) error {
	result, err := s.jobseekers.DeleteOne(ctx, bson.M{"resident_id": residentID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotRegistered
	}
	return nil
}

// IsRegistered reports whether the resident has a registry entry.
func (s *JobseekerService) IsRegistered(ctx context.Context, residentID primitive.ObjectID) (bool, error) {
	count, err := s.jobseekers.CountDocuments(ctx, bson.M{"resident_id": residentID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByMunicipality returns the registry for a municipality, most
// recently registered first. Staff view.
func (s *JobseekerService) ListByMunicipality(ctx context.Context, municipality string, ward int) ([]models.Jobseeker, error) {
	filter := bson.M{"municipality": municipality}
	if ward > 0 {
		filter["ward"] = ward
	}
	opts := options.Find().SetSort(bson.M{"registered_at": -1})
	cursor, err := s.jobseekers.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.Jobseeker{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
