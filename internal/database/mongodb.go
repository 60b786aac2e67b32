// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"freestate-servicedelivery/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.DatabaseName)

	log.Printf("Connected to MongoDB: %s", cfg.DatabaseName)

	return &MongoDB{
		Client:   client,
		Database: database,
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Disconnected from MongoDB")
	return nil
}

// CreateIndexes creates the indexes for all collections.
// NOTE: bson.D is used instead of a map to preserve key order.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	userCollection := m.Database.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "municipality", Value: 1},
			},
		},
	}

	if _, err := userCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	issueCollection := m.Database.Collection("issues")
	issueIndexes := []mongo.IndexModel{
		{
			// Compound index for triage views
			Keys: bson.D{
				{Key: "municipality", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "municipality", Value: 1},
				{Key: "department", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "municipality", Value: 1},
				{Key: "ward", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "resident_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assigned_to", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "reported_at", Value: -1}},
		},
	}

	if _, err := issueCollection.Indexes().CreateMany(ctx, issueIndexes); err != nil {
		return fmt.Errorf("failed to create issue indexes: %w", err)
	}

	announcementCollection := m.Database.Collection("announcements")
	announcementIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "municipality", Value: 1},
				{Key: "ward", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "author_id", Value: 1}},
		},
	}

	if _, err := announcementCollection.Indexes().CreateMany(ctx, announcementIndexes); err != nil {
		return fmt.Errorf("failed to create announcement indexes: %w", err)
	}

	jobseekerCollection := m.Database.Collection("jobseekers")
	jobseekerIndexes := []mongo.IndexModel{
		{
			// One registration per resident; re-registering replaces it
			Keys:    bson.D{{Key: "resident_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "municipality", Value: 1},
				{Key: "ward", Value: 1},
			},
		},
	}

	if _, err := jobseekerCollection.Indexes().CreateMany(ctx, jobseekerIndexes); err != nil {
		return fmt.Errorf("failed to create jobseeker indexes: %w", err)
	}

	notificationCollection := m.Database.Collection("notifications")
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_read", Value: 1},
			},
		},
	}

	if _, err := notificationCollection.Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	log.Println("Indexes created for all collections")
	return nil
}
