// internal/models/jobseeker.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Jobseeker is a resident's registration on the municipal jobseeker
// database. There is at most one record per resident; registering again
// replaces the previous record.
type Jobseeker struct {
	ResidentID   primitive.ObjectID `bson:"resident_id" json:"resident_id"`
	ResidentName string             `bson:"resident_name" json:"resident_name"`
	Municipality string             `bson:"municipality" json:"municipality"`
	Ward         int                `bson:"ward" json:"ward"`
	ContactInfo  string             `bson:"contact_info" json:"contact_info" validate:"required"`
	Skills       string             `bson:"skills" json:"skills" validate:"required,max=1000"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
}
