package handlers

import (
	"testing"

	"freestate-servicedelivery/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanViewIssue(t *testing.T) {
	owner := primitive.NewObjectID()
	issue := &models.Issue{
		ResidentID:   owner,
		Municipality: "Mangaung Metropolitan Municipality",
		Ward:         2,
	}

	tests := []struct {
		name string
		p    principal
		want bool
	}{
		{"owning resident", principal{ID: owner, Role: models.RoleResident}, true},
		{"other resident", principal{ID: primitive.NewObjectID(), Role: models.RoleResident}, false},
		{"councillor same municipality", principal{Role: models.RoleWardCouncillor, Municipality: issue.Municipality}, true},
		{"councillor other municipality", principal{Role: models.RoleWardCouncillor, Municipality: "Dihlabeng Local Municipality"}, false},
		{"official other municipality", principal{Role: models.RoleMunicipalOfficial, Municipality: "Dihlabeng Local Municipality"}, false},
		{"worker same municipality", principal{Role: models.RoleMunicipalWorker, Municipality: issue.Municipality}, true},
		{"worker other municipality", principal{Role: models.RoleMunicipalWorker, Municipality: "Dihlabeng Local Municipality"}, false},
		{"executive anywhere", principal{Role: models.RoleExecutive}, true},
		{"admin anywhere", principal{Role: models.RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canViewIssue(tt.p, issue))
		})
	}
}
