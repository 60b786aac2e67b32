package handlers

import (
	"errors"
	"net/http"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/services"

	"github.com/gin-gonic/gin"
)

type JobseekerHandler struct {
	jobseekers *services.JobseekerService
}

func NewJobseekerHandler(jobseekers *services.JobseekerService) *JobseekerHandler {
	return &JobseekerHandler{jobseekers: jobseekers}
}

type registerJobseekerRequest struct {
	ContactInfo string `json:"contact_info" binding:"required"`
	Skills      string `json:"skills" binding:"required"`
}

// Register adds or updates the caller's registry entry.
func (h *JobseekerHandler) Register(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req registerJobseekerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	entry, err := h.jobseekers.Register(ctx, services.RegisterParams{
		ResidentID:   p.ID,
		ResidentName: p.Name,
		Municipality: p.Municipality,
		Ward:         p.Ward,
		ContactInfo:  req.ContactInfo,
		Skills:       req.Skills,
	}, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobseeker": entry})
}

// Deregister removes the caller's registry entry.
func (h *JobseekerHandler) Deregister(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.jobseekers.Deregister(ctx, p.ID); err != nil {
		if errors.Is(err, services.ErrNotRegistered) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not on the jobseeker registry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deregister"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from the jobseeker registry"})
}

// Status reports whether the caller is currently registered.
func (h *JobseekerHandler) Status(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	registered, err := h.jobseekers.IsRegistered(ctx, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check registry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"registered": registered})
}

// List returns the registry for the caller's municipality. Councillors
// see their own ward only.
func (h *JobseekerHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ward := 0
	if p.Role == models.RoleWardCouncillor {
		ward = p.Ward
	}

	ctx, cancel := requestContext()
	defer cancel()

	entries, err := h.jobseekers.ListByMunicipality(ctx, p.Municipality, ward)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobseekers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobseekers": entries, "count": len(entries)})
}
