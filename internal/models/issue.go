// internal/models/issue.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory is the kind of service delivery problem being reported.
type IssueCategory string

const (
	CategoryWaterLeak      IssueCategory = "Water Leak"
	CategoryPothole        IssueCategory = "Pothole"
	CategoryElectricity    IssueCategory = "Electricity Fault"
	CategoryWasteRemoval   IssueCategory = "Waste Removal"
	CategoryTrafficSignal  IssueCategory = "Traffic Signal Fault"
	CategoryIllegalDumping IssueCategory = "Illegal Dumping"
	CategoryParks          IssueCategory = "Parks Maintenance"
	CategorySewage         IssueCategory = "Sewage Problem"
	CategoryOther          IssueCategory = "Other"
)

// AllCategories returns every reportable category.
func AllCategories() []IssueCategory {
	return []IssueCategory{
		CategoryWaterLeak,
		CategoryPothole,
		CategoryElectricity,
		CategoryWasteRemoval,
		CategoryTrafficSignal,
		CategoryIllegalDumping,
		CategoryParks,
		CategorySewage,
		CategoryOther,
	}
}

func (c IssueCategory) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// IssueStatus lifecycle: Pending -> In Progress -> Resolved.
type IssueStatus string

const (
	StatusPending    IssueStatus = "Pending"
	StatusInProgress IssueStatus = "In Progress"
	StatusResolved   IssueStatus = "Resolved"
)

func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type IssuePriority string

const (
	PriorityHigh   IssuePriority = "High"
	PriorityMedium IssuePriority = "Medium"
	PriorityLow    IssuePriority = "Low"
)

func (p IssuePriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for sorting, higher is more urgent.
func (p IssuePriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ResidentRating is the post-resolution satisfaction signal.
type ResidentRating string

const (
	RatingSatisfied   ResidentRating = "Satisfied"
	RatingUnsatisfied ResidentRating = "Unsatisfied"
)

func (r ResidentRating) IsValid() bool {
	return r == RatingSatisfied || r == RatingUnsatisfied
}

// Department is the municipal unit responsible for a category of issues.
type Department string

const (
	DeptWaterSanitation Department = "Water & Sanitation"
	DeptRoadsTransport  Department = "Roads & Transport"
	DeptEnergy          Department = "Energy & Electricity"
	DeptWaste           Department = "Waste Management"
	DeptPublicWorks     Department = "Public Works"
)

func AllDepartments() []Department {
	return []Department{
		DeptWaterSanitation,
		DeptRoadsTransport,
		DeptEnergy,
		DeptWaste,
		DeptPublicWorks,
	}
}

func (d Department) IsValid() bool {
	for _, known := range AllDepartments() {
		if d == known {
			return true
		}
	}
	return false
}

// History event types
type HistoryEventType string

const (
	HistoryCreated       HistoryEventType = "created"
	HistoryStatusChanged HistoryEventType = "status_changed"
	HistoryComment       HistoryEventType = "comment"
	HistoryRated         HistoryEventType = "rated"
	HistoryAssigned      HistoryEventType = "assigned"
	HistoryPhotoAdded    HistoryEventType = "photo_added"
)

// HistoryActor identifies which side of the process wrote an event.
type HistoryActor string

const (
	ActorResident     HistoryActor = "Resident"
	ActorMunicipality HistoryActor = "Municipality"
	ActorSystem       HistoryActor = "System"
)

// HistoryEvent is an immutable entry in an issue's append-only audit trail.
// Entries are kept in insertion order and never re-sorted by timestamp.
type HistoryEvent struct {
	ID        string           `bson:"id" json:"id"`
	Timestamp time.Time        `bson:"timestamp" json:"timestamp"`
	Type      HistoryEventType `bson:"type" json:"type"`
	Actor     HistoryActor     `bson:"actor" json:"actor"`
	Details   string           `bson:"details" json:"details"`
}

// WorkPhotoPhase distinguishes evidence taken before and after repair work.
type WorkPhotoPhase string

const (
	PhotoPhaseBefore WorkPhotoPhase = "before"
	PhotoPhaseAfter  WorkPhotoPhase = "after"
)

func (p WorkPhotoPhase) IsValid() bool {
	return p == PhotoPhaseBefore || p == PhotoPhaseAfter
}

// Issue is a reported service delivery problem tracked through its
// status lifecycle. Department and councillor are snapshots taken from
// the reference data at creation time and never re-resolved.
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Category    IssueCategory      `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`

	// Base64-encoded evidence photos
	Photo           string `bson:"photo,omitempty" json:"photo,omitempty"`
	BeforeWorkPhoto string `bson:"before_work_photo,omitempty" json:"before_work_photo,omitempty"`
	AfterWorkPhoto  string `bson:"after_work_photo,omitempty" json:"after_work_photo,omitempty"`

	Status   IssueStatus   `bson:"status" json:"status"`
	Priority IssuePriority `bson:"priority" json:"priority"`

	ReportedAt time.Time  `bson:"reported_at" json:"reported_at"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`

	ResidentID   primitive.ObjectID `bson:"resident_id" json:"resident_id"`
	Municipality string             `bson:"municipality" json:"municipality"`
	Ward         int                `bson:"ward" json:"ward"`
	Councillor   string             `bson:"councillor" json:"councillor"`
	Department   Department         `bson:"department" json:"department"`

	History []HistoryEvent `bson:"history" json:"history"`

	Rating     *ResidentRating     `bson:"rating,omitempty" json:"rating,omitempty"`
	AssignedTo *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
}

func (i *Issue) IsResolved() bool {
	return i.Status == StatusResolved
}

func (i *Issue) IsOpen() bool {
	return i.Status != StatusResolved
}

func (i *Issue) IsAssigned() bool {
	return i.AssignedTo != nil
}

func (i *Issue) IsRated() bool {
	return i.Rating != nil
}

// Age is how long the issue has been open, measured from reportedAt.
func (i *Issue) Age(now time.Time) time.Duration {
	return now.Sub(i.ReportedAt)
}

// ResolutionTime returns reportedAt..resolvedAt for resolved issues that
// carry a resolution timestamp. The second return is false otherwise.
func (i *Issue) ResolutionTime() (time.Duration, bool) {
	if !i.IsResolved() || i.ResolvedAt == nil {
		return 0, false
	}
	return i.ResolvedAt.Sub(i.ReportedAt), true
}

// CriticalAge is how old a high-priority open issue must be before it is
// flagged as critical on executive dashboards.
const CriticalAge = 3 * 24 * time.Hour

// IsCritical reports whether the issue qualifies as a critical hotspot:
// high priority, still open, and older than CriticalAge.
func (i *Issue) IsCritical(now time.Time) bool {
	return i.Priority == PriorityHigh && i.IsOpen() && i.Age(now) > CriticalAge
}

// IsNew reports whether the issue was reported within the last 24 hours.
func (i *Issue) IsNew(now time.Time) bool {
	return i.Age(now) < 24*time.Hour
}

func (i *Issue) LatestEvent() *HistoryEvent {
	if len(i.History) == 0 {
		return nil
	}
	return &i.History[len(i.History)-1]
}

func (i *Issue) CommentCount() int {
	count := 0
	for _, event := range i.History {
		if event.Type == HistoryComment {
			count++
		}
	}
	return count
}
