// internal/services/seed.go
//
// Development fixtures. Seeding runs only against empty collections so
// a restart never duplicates or clobbers real data.
package services

import (
	"context"
	"fmt"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const seedPassword = "password"

// Seeder populates demo accounts, issues and announcements.
type Seeder struct {
	db  *mongo.Database
	ref *reference.Set
}

func NewSeeder(db *mongo.Database, ref *reference.Set) *Seeder {
	return &Seeder{db: db, ref: ref}
}

// Run seeds every collection that is still empty.
func (s *Seeder) Run(ctx context.Context) error {
	users, err := s.seedUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := s.seedIssues(ctx, users); err != nil {
		return fmt.Errorf("seed issues: %w", err)
	}
	if err := s.seedAnnouncements(ctx, users); err != nil {
		return fmt.Errorf("seed announcements: %w", err)
	}
	if err := s.seedJobseekers(ctx, users); err != nil {
		return fmt.Errorf("seed jobseekers: %w", err)
	}
	return nil
}

type seedUser struct {
	key          string
	name         string
	email        string
	role         models.Role
	title        string
	municipality string
	ward         int
	department   models.Department
}

const (
	muniMangaung  = "Mangaung Metropolitan Municipality"
	muniDihlabeng = "Dihlabeng Local Municipality"
)

func seedUserList() []seedUser {
	return []seedUser{
		{key: "admin", name: "Admin User", email: "admin@servicedelivery.za", role: models.RoleAdmin},

		{key: "mayor", name: "Regina Mills", email: "mayor@servicedelivery.za", role: models.RoleExecutive, title: "Mayor", municipality: muniMangaung},
		{key: "speaker", name: "David Nolan", email: "speaker@servicedelivery.za", role: models.RoleExecutive, title: "Speaker", municipality: muniMangaung},
		{key: "manager", name: "Emma Swan", email: "manager@servicedelivery.za", role: models.RoleExecutive, title: "Municipal Manager", municipality: muniMangaung},
		{key: "cfo", name: "Mary Margaret", email: "cfo@servicedelivery.za", role: models.RoleExecutive, title: "Chief Financial Officer", municipality: muniMangaung},
		{key: "coo", name: "Henry Mills", email: "coo@servicedelivery.za", role: models.RoleExecutive, title: "Chief Operations Officer", municipality: muniMangaung},

		{key: "resident-1", name: "Alice Johnson", email: "alice@email.com", role: models.RoleResident, municipality: muniMangaung, ward: 1},
		{key: "resident-2", name: "David Chen", email: "david@email.com", role: models.RoleResident, municipality: muniMangaung, ward: 2},
		{key: "resident-3", name: "Maria Garcia", email: "maria@email.com", role: models.RoleResident, municipality: muniDihlabeng, ward: 3},
		{key: "resident-4", name: "Samuel Jones", email: "samuel@email.com", role: models.RoleResident, municipality: muniDihlabeng, ward: 4},

		{key: "councillor-1", name: "Eleanor Vance", email: "cllr.vance@servicedelivery.za", role: models.RoleWardCouncillor, municipality: muniMangaung, ward: 1},
		{key: "councillor-2", name: "Ben Carter", email: "cllr.carter@servicedelivery.za", role: models.RoleWardCouncillor, municipality: muniMangaung, ward: 2},
		{key: "councillor-3", name: "Priya Singh", email: "cllr.singh@servicedelivery.za", role: models.RoleWardCouncillor, municipality: muniDihlabeng, ward: 3},
		{key: "councillor-4", name: "Omar Al-Jamil", email: "cllr.aljamil@servicedelivery.za", role: models.RoleWardCouncillor, municipality: muniDihlabeng, ward: 4},

		{key: "official-1", name: "James Kirk", email: "kirk.j@servicedelivery.za", role: models.RoleMunicipalOfficial, municipality: muniMangaung, department: models.DeptRoadsTransport},
		{key: "official-2", name: "Jean-Luc Picard", email: "picard.jl@servicedelivery.za", role: models.RoleMunicipalOfficial, municipality: muniMangaung, department: models.DeptWaterSanitation},
		{key: "official-3", name: "Kathryn Janeway", email: "janeway.k@servicedelivery.za", role: models.RoleMunicipalOfficial, municipality: muniDihlabeng, department: models.DeptEnergy},

		{key: "worker-1", name: "Miles O'Brien", email: "obrien.m@servicedelivery.za", role: models.RoleMunicipalWorker, municipality: muniMangaung, department: models.DeptWaterSanitation},
		{key: "worker-2", name: "Geordi La Forge", email: "laforge.g@servicedelivery.za", role: models.RoleMunicipalWorker, municipality: muniMangaung, department: models.DeptRoadsTransport},
		{key: "worker-3", name: "B'Elanna Torres", email: "torres.b@servicedelivery.za", role: models.RoleMunicipalWorker, municipality: muniDihlabeng, department: models.DeptPublicWorks},
	}
}

func (s *Seeder) seedUsers(ctx context.Context) (map[string]models.User, error) {
	users := s.db.Collection("users")
	seeded := make(map[string]models.User)

	count, err := users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		// Load the existing accounts so issue seeding can still link them.
		cursor, err := users.Find(ctx, bson.M{})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)
		byEmail := make(map[string]models.User)
		for cursor.Next(ctx) {
			var user models.User
			if err := cursor.Decode(&user); err != nil {
				continue
			}
			byEmail[user.Email] = user
		}
		for _, spec := range seedUserList() {
			if user, ok := byEmail[spec.email]; ok {
				seeded[spec.key] = user
			}
		}
		return seeded, nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(seedUserList()))
	for _, spec := range seedUserList() {
		user := models.User{
			ID:           primitive.NewObjectID(),
			Name:         spec.name,
			Email:        spec.email,
			Role:         spec.role,
			Title:        spec.title,
			Municipality: spec.municipality,
			Ward:         spec.ward,
			Department:   spec.department,
			CreatedAt:    now,
		}
		password := seedPassword
		if spec.role == models.RoleAdmin {
			password = "admin"
		}
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
		docs = append(docs, user)
		seeded[spec.key] = user
	}

	if _, err := users.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	logrus.WithField("count", len(docs)).Info("Seeded demo accounts")
	return seeded, nil
}

func (s *Seeder) seedIssues(ctx context.Context, users map[string]models.User) error {
	issues := s.db.Collection("issues")
	count, err := issues.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}

	now := time.Now()
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }

	type fixture struct {
		category    models.IssueCategory
		description string
		location    string
		priority    models.IssuePriority
		status      models.IssueStatus
		reportedDay int
		resolvedDay int // -1 when unresolved
		resident    string
		ward        int
		worker      string
		rating      *models.ResidentRating
	}
	satisfied := models.RatingSatisfied

	fixtures := []fixture{
		{models.CategoryPothole, "Large pothole on Main St", "123 Main St", models.PriorityMedium, models.StatusResolved, 5, 2, "resident-2", 1, "worker-2", &satisfied},
		{models.CategoryWaterLeak, "Water pipe leaking for 3 days", "456 Oak Ave", models.PriorityHigh, models.StatusInProgress, 3, -1, "resident-3", 2, "worker-1", nil},
		{models.CategoryElectricity, "Street light is out", "789 Pine Rd", models.PriorityLow, models.StatusPending, 1, -1, "resident-1", 1, "", nil},
		{models.CategorySewage, "Sewage overflow near the school", "12 School Ln", models.PriorityHigh, models.StatusPending, 4, -1, "resident-4", 4, "", nil},
		{models.CategoryWasteRemoval, "Refuse not collected this week", "80 Acacia St", models.PriorityMedium, models.StatusPending, 2, -1, "resident-2", 2, "", nil},
	}

	docs := make([]interface{}, 0, len(fixtures))
	for _, f := range fixtures {
		resident, ok := users[f.resident]
		if !ok {
			continue
		}
		reported := daysAgo(f.reportedDay)
		issue := models.Issue{
			ID:           primitive.NewObjectID(),
			Description:  f.description,
			Category:     f.category,
			Location:     f.location,
			Priority:     f.priority,
			Status:       f.status,
			ReportedAt:   reported,
			ResidentID:   resident.ID,
			Municipality: resident.Municipality,
			Ward:         f.ward,
			Councillor:   s.ref.CouncillorForWard(f.ward),
			Department:   s.ref.DepartmentForCategory(f.category),
			History: []models.HistoryEvent{{
				ID:        uuid.New().String(),
				Timestamp: reported,
				Type:      models.HistoryCreated,
				Actor:     models.ActorSystem,
				Details:   "Issue reported.",
			}},
		}
		if f.worker != "" {
			if worker, ok := users[f.worker]; ok {
				issue.AssignedTo = &worker.ID
			}
		}
		if f.status != models.StatusPending {
			changed := reported.Add(12 * time.Hour)
			if f.resolvedDay >= 0 {
				changed = daysAgo(f.resolvedDay)
			}
			issue.History = append(issue.History, models.HistoryEvent{
				ID:        uuid.New().String(),
				Timestamp: changed,
				Type:      models.HistoryStatusChanged,
				Actor:     models.ActorMunicipality,
				Details:   fmt.Sprintf("Status changed to %s.", f.status),
			})
		}
		if f.resolvedDay >= 0 {
			resolvedAt := daysAgo(f.resolvedDay)
			issue.ResolvedAt = &resolvedAt
		}
		if f.rating != nil {
			issue.Rating = f.rating
			issue.History = append(issue.History, models.HistoryEvent{
				ID:        uuid.New().String(),
				Timestamp: daysAgo(1),
				Type:      models.HistoryRated,
				Actor:     models.ActorResident,
				Details:   fmt.Sprintf("Resident rated this as %s.", *f.rating),
			})
		}
		docs = append(docs, issue)
	}

	if len(docs) == 0 {
		return nil
	}
	if _, err := issues.InsertMany(ctx, docs); err != nil {
		return err
	}
	logrus.WithField("count", len(docs)).Info("Seeded demo issues")
	return nil
}

func (s *Seeder) seedAnnouncements(ctx context.Context, users map[string]models.User) error {
	announcements := s.db.Collection("announcements")
	count, err := announcements.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}
	author, ok := users["councillor-1"]
	if !ok {
		return nil
	}

	docs := []interface{}{
		models.Announcement{
			ID:           primitive.NewObjectID(),
			Title:        "Ward 1 community meeting",
			Content:      "Monthly ward meeting to discuss service delivery priorities.",
			Type:         models.AnnouncementMeeting,
			Ward:         1,
			Municipality: author.Municipality,
			AuthorID:     author.ID,
			AuthorName:   author.Name,
			AuthorRole:   author.Role,
			Meeting: &models.MeetingDetails{
				Date:     time.Now().Add(7 * 24 * time.Hour).Format("2006-01-02"),
				Time:     "18:00",
				Location: "Ward 1 Community Hall",
			},
			CreatedAt: time.Now(),
		},
		models.Announcement{
			ID:           primitive.NewObjectID(),
			Title:        "Scheduled water interruption",
			Content:      "Maintenance on the main supply line on Thursday, 08:00 to 16:00.",
			Type:         models.AnnouncementAlert,
			Ward:         models.AnnouncementAllWards,
			Municipality: author.Municipality,
			AuthorID:     author.ID,
			AuthorName:   author.Name,
			AuthorRole:   author.Role,
			CreatedAt:    time.Now(),
		},
	}
	if _, err := announcements.InsertMany(ctx, docs); err != nil {
		return err
	}
	logrus.WithField("count", len(docs)).Info("Seeded demo announcements")
	return nil
}

func (s *Seeder) seedJobseekers(ctx context.Context, users map[string]models.User) error {
	jobseekers := s.db.Collection("jobseekers")
	count, err := jobseekers.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}
	resident, ok := users["resident-1"]
	if !ok {
		return nil
	}

	entry := models.Jobseeker{
		ResidentID:   resident.ID,
		ResidentName: resident.Name,
		Municipality: resident.Municipality,
		Ward:         resident.Ward,
		ContactInfo:  resident.Email,
		Skills:       "Plumbing and general maintenance, 5 years experience",
		RegisteredAt: time.Now(),
	}
	if _, err := jobseekers.InsertOne(ctx, entry); err != nil {
		return err
	}
	logrus.Info("Seeded demo jobseeker registry")
	return nil
}
