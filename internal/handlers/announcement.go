package handlers

import (
	"errors"
	"net/http"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	notifications *services.NotificationService
}

func NewAnnouncementHandler(announcements *services.AnnouncementService, notifications *services.NotificationService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, notifications: notifications}
}

type createAnnouncementRequest struct {
	Title   string                  `json:"title" binding:"required"`
	Content string                  `json:"content" binding:"required"`
	Type    models.AnnouncementType `json:"type" binding:"required"`
	Ward    int                     `json:"ward"`
	Meeting *models.MeetingDetails  `json:"meeting"`
}

// Create publishes an announcement. Councillors always publish to
// their own ward; other staff may target a ward or the whole
// municipality with ward 0.
func (h *AnnouncementHandler) Create(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Type.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown announcement type"})
		return
	}
	if req.Type == models.AnnouncementMeeting && req.Meeting == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meeting announcements require meeting details"})
		return
	}

	ward := req.Ward
	if p.Role == models.RoleWardCouncillor {
		ward = p.Ward
	}

	announcement := services.NewAnnouncement(services.CreateAnnouncementParams{
		Title:        req.Title,
		Content:      req.Content,
		Type:         req.Type,
		Ward:         ward,
		Municipality: p.Municipality,
		AuthorID:     p.ID,
		AuthorName:   p.Name,
		AuthorRole:   p.Role,
		Meeting:      req.Meeting,
	}, time.Now())

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.announcements.Publish(ctx, announcement); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish announcement"})
		return
	}

	h.notifications.NotifyAnnouncement(ctx, announcement)
	c.JSON(http.StatusCreated, gin.H{"announcement": announcement})
}

// List returns the announcements visible to the caller. Residents and
// councillors get their ward plus municipality-wide ones; other staff
// see the whole municipality.
func (h *AnnouncementHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var (
		announcements []models.Announcement
		err           error
	)
	switch p.Role {
	case models.RoleResident, models.RoleWardCouncillor:
		announcements, err = h.announcements.ListVisible(ctx, p.Municipality, p.Ward)
	default:
		municipality := p.Municipality
		if municipality == "" {
			municipality = c.Query("municipality")
		}
		announcements, err = h.announcements.ListByMunicipality(ctx, municipality)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list announcements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"announcements": announcements, "count": len(announcements)})
}

// Delete retracts an announcement. Authors retract their own; admins
// may retract anything.
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid announcement ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	authorID := p.ID
	if p.Role.HasPermission(models.PermissionManageAnnouncements) {
		// Admin override: retract regardless of author.
		if err := h.announcements.RetractAny(ctx, id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Announcement retracted"})
		return
	}

	if err := h.announcements.Retract(ctx, id, authorID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement retracted"})
}

func (h *AnnouncementHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAnnouncementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
	case errors.Is(err, services.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author may retract this announcement"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
