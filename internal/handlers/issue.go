package handlers

import (
	"context"
	"errors"
	"net/http"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueHandler struct {
	issues        *services.IssueService
	users         *services.UserService
	notifications *services.NotificationService
	feed          *WebSocketHandler
}

func NewIssueHandler(issues *services.IssueService, users *services.UserService, notifications *services.NotificationService, feed *WebSocketHandler) *IssueHandler {
	return &IssueHandler{issues: issues, users: users, notifications: notifications, feed: feed}
}

type createIssueRequest struct {
	Category    models.IssueCategory `json:"category" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Location    string               `json:"location" binding:"required"`
	Photo       string               `json:"photo"`
	Priority    models.IssuePriority `json:"priority"`
}

// Create files a new report for the authenticated resident. Ward,
// municipality, councillor and department are taken from the account
// and the reference data, never from the request body.
func (h *IssueHandler) Create(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown issue category"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	issue, err := h.issues.Create(ctx, services.CreateIssueParams{
		Category:     req.Category,
		Description:  req.Description,
		Location:     req.Location,
		Photo:        req.Photo,
		Priority:     req.Priority,
		ResidentID:   p.ID,
		Municipality: p.Municipality,
		Ward:         p.Ward,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	h.feed.Publish(FeedIssueReported, issue)
	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

// List returns issues scoped to the caller's role. Residents see their
// own reports, councillors their ward, officials their department,
// workers their assignments plus the department backlog, executives
// and admins everything, optionally narrowed by query parameters.
func (h *IssueHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	filter := services.IssueFilter{
		Status:   models.IssueStatus(c.Query("status")),
		Category: models.IssueCategory(c.Query("category")),
		Priority: models.IssuePriority(c.Query("priority")),
	}

	switch p.Role {
	case models.RoleResident:
		filter.ResidentID = &p.ID
	case models.RoleWardCouncillor:
		filter.Municipality = p.Municipality
		filter.Ward = p.Ward
	case models.RoleMunicipalOfficial:
		filter.Municipality = p.Municipality
		filter.Department = p.Department
	case models.RoleMunicipalWorker:
		filter.Municipality = p.Municipality
		filter.Department = p.Department
		if c.Query("queue") == "unassigned" {
			filter.Unassigned = true
		} else if c.Query("queue") != "department" {
			filter.AssignedTo = &p.ID
		}
	case models.RoleExecutive, models.RoleAdmin:
		filter.Municipality = c.Query("municipality")
		if ward, err := intQuery(c, "ward"); err == nil {
			filter.Ward = ward
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

// Get returns one issue with its full history.
func (h *IssueHandler) Get(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	issue, err := h.issues.ByID(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !canViewIssue(p, issue) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type updateStatusRequest struct {
	Status models.IssueStatus `json:"status" binding:"required"`
}

// UpdateStatus moves an issue through its lifecycle. Resolution stamps
// resolvedAt; moving away from Resolved clears it again.
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if !h.checkScope(ctx, c, p, id) {
		return
	}

	issue, err := h.issues.UpdateStatus(ctx, id, req.Status, p.Name, p.Role.HistoryActor())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifications.NotifyStatusChange(ctx, issue, req.Status)
	h.feed.Publish(FeedIssueUpdated, issue)
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type assignRequest struct {
	WorkerID string `json:"worker_id"`
}

// Assign attaches a worker to an issue and moves it to In Progress.
// Workers assign themselves; officials and admins may name a worker.
// An already assigned issue is never silently reassigned.
func (h *IssueHandler) Assign(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	workerID := p.ID
	workerName := p.Name

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.WorkerID != "" {
		if !p.Role.HasPermission(models.PermissionAssignWorkers) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only officials may assign other workers"})
			return
		}
		targetID, err := primitive.ObjectIDFromHex(req.WorkerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker ID"})
			return
		}
		ctx, cancel := requestContext()
		defer cancel()
		worker, err := h.users.ByID(ctx, targetID)
		if err != nil || !worker.IsWorker() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown worker"})
			return
		}
		workerID = worker.ID
		workerName = worker.Name
	} else if p.Role != models.RoleMunicipalWorker && !p.Role.HasPermission(models.PermissionAssignWorkers) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if !h.checkScope(ctx, c, p, id) {
		return
	}

	issue, err := h.issues.Assign(ctx, id, workerID, workerName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifications.NotifyAssignment(ctx, issue, workerID)
	h.feed.Publish(FeedIssueAssigned, issue)
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type workPhotoRequest struct {
	Photo string                `json:"photo" binding:"required"`
	Phase models.WorkPhotoPhase `json:"phase" binding:"required"`
}

// AddWorkPhoto attaches before or after work evidence.
func (h *IssueHandler) AddWorkPhoto(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var req workPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Phase != models.PhotoPhaseBefore && req.Phase != models.PhotoPhaseAfter {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phase must be before or after"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if !h.checkScope(ctx, c, p, id) {
		return
	}

	issue, err := h.issues.AddWorkPhoto(ctx, id, req.Photo, req.Phase, p.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.feed.Publish(FeedIssueUpdated, issue)
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment appends a comment to the issue history.
func (h *IssueHandler) AddComment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if !h.checkScope(ctx, c, p, id) {
		return
	}

	actor := p.Role.HistoryActor()
	issue, err := h.issues.AddComment(ctx, id, req.Text, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifications.NotifyComment(ctx, issue, actor)
	h.feed.Publish(FeedIssueUpdated, issue)
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type rateRequest struct {
	Rating models.ResidentRating `json:"rating" binding:"required"`
}

// Rate records the reporting resident's satisfaction verdict on a
// resolved issue. One verdict per issue, final.
func (h *IssueHandler) Rate(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Rating.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be Satisfied or Unsatisfied"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	existing, err := h.issues.ByID(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if existing.ResidentID != p.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the reporting resident may rate this issue"})
		return
	}

	issue, err := h.issues.Rate(ctx, id, req.Rating)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.feed.Publish(FeedIssueRated, issue)
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// checkScope loads the issue and confirms the caller may act on it.
// Every mutation goes through this before touching the record, so a
// staff role alone never reaches issues outside its municipality.
func (h *IssueHandler) checkScope(ctx context.Context, c *gin.Context, p principal, id primitive.ObjectID) bool {
	existing, err := h.issues.ByID(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return false
	}
	if !canViewIssue(p, existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return false
	}
	return true
}

func (h *IssueHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, services.ErrAlreadyAssigned):
		c.JSON(http.StatusConflict, gin.H{"error": "Issue is already assigned"})
	case errors.Is(err, services.ErrNotResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Only resolved issues can be rated"})
	case errors.Is(err, services.ErrAlreadyRated):
		c.JSON(http.StatusConflict, gin.H{"error": "Issue has already been rated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
