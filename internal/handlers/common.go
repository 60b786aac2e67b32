package handlers

import (
	"context"
	"strconv"
	"time"

	"freestate-servicedelivery/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// principal is the authenticated caller, reconstructed from the
// context keys the auth middleware sets.
type principal struct {
	ID           primitive.ObjectID
	Name         string
	Role         models.Role
	Municipality string
	Ward         int
	Department   models.Department
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return principal{}, false
	}
	p := principal{ID: userID.(primitive.ObjectID)}
	if name, ok := c.Get("user_name"); ok {
		p.Name = name.(string)
	}
	if role, ok := c.Get("role"); ok {
		p.Role = models.Role(role.(string))
	}
	if municipality, ok := c.Get("municipality"); ok {
		p.Municipality = municipality.(string)
	}
	if ward, ok := c.Get("ward"); ok {
		p.Ward = ward.(int)
	}
	if department, ok := c.Get("department"); ok {
		p.Department = models.Department(department.(string))
	}
	return p, true
}

func intQuery(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}

// canViewIssue checks record-level access: residents see their own
// reports, staff see their municipality, executives and admins see
// everything.
func canViewIssue(p principal, issue *models.Issue) bool {
	switch p.Role {
	case models.RoleResident:
		return issue.ResidentID == p.ID
	case models.RoleExecutive, models.RoleAdmin:
		return true
	default:
		return issue.Municipality == p.Municipality
	}
}
