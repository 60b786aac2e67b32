package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewJobseekerEntry(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	params := RegisterParams{
		ResidentID:   primitive.NewObjectID(),
		ResidentName: "Alice Johnson",
		Municipality: "Mangaung Metropolitan Municipality",
		Ward:         1,
		ContactInfo:  "  alice@example.com  ",
		Skills:       " Plumbing and general maintenance ",
	}

	entry := NewJobseekerEntry(params, now)

	assert.Equal(t, params.ResidentID, entry.ResidentID)
	assert.Equal(t, "alice@example.com", entry.ContactInfo)
	assert.Equal(t, "Plumbing and general maintenance", entry.Skills)
	assert.Equal(t, now, entry.RegisteredAt)
}

func TestNewJobseekerEntryStampsEachRegistration(t *testing.T) {
	params := RegisterParams{
		ResidentID: primitive.NewObjectID(),
		Skills:     "Gardening",
	}

	first := NewJobseekerEntry(params, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	second := NewJobseekerEntry(params, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	assert.True(t, second.RegisteredAt.After(first.RegisteredAt))
}
