package handlers

import (
	"net/http"
	"time"

	"freestate-servicedelivery/internal/reference"
	"freestate-servicedelivery/internal/services"

	"github.com/gin-gonic/gin"
)

// NarrationHandler serves the AI-assisted endpoints. Everything here
// is advisory: when the narrator is unavailable each endpoint degrades
// to a fixed fallback and the client renders the raw numbers instead.
type NarrationHandler struct {
	narrator *services.Narrator
	issues   *services.IssueService
	ref      *reference.Set
}

func NewNarrationHandler(narrator *services.Narrator, issues *services.IssueService, ref *reference.Set) *NarrationHandler {
	return &NarrationHandler{narrator: narrator, issues: issues, ref: ref}
}

type suggestCategoryRequest struct {
	Description string `json:"description" binding:"required"`
	Photo       string `json:"photo"`
}

// SuggestCategory classifies a draft report from its description and
// optional photo. The priority comes from the model's own urgency
// judgement; the department is derived from the category via the
// reference data.
func (h *NarrationHandler) SuggestCategory(c *gin.Context) {
	var req suggestCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, ok := h.narrator.SuggestCategory(c.Request.Context(), req.Description, req.Photo)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"suggested": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggested":  true,
		"category":   suggestion.Category,
		"priority":   suggestion.Priority,
		"department": h.ref.DepartmentForCategory(suggestion.Category),
	})
}

// TransparencyReport narrates the public statistics of a municipality.
func (h *NarrationHandler) TransparencyReport(c *gin.Context) {
	municipality := c.Query("municipality")
	if municipality == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Municipality is required"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{Municipality: municipality})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	narration := h.narrator.TransparencyReport(c.Request.Context(), municipality,
		services.Summarize(issues), services.SentimentOf(issues), services.CategoryBreakdown(issues))
	c.JSON(http.StatusOK, gin.H{"narration": narration})
}

// CouncillorBriefing narrates the caller's ward statistics.
func (h *NarrationHandler) CouncillorBriefing(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	wardIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality, Ward: p.Ward})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	now := time.Now()
	narration := h.narrator.CouncillorBriefing(c.Request.Context(), p.Name, p.Ward,
		services.Summarize(wardIssues), services.SentimentOf(wardIssues), len(services.CriticalIssues(wardIssues, now)))
	c.JSON(http.StatusOK, gin.H{"narration": narration})
}

// ExecutiveSummary narrates the cross-municipality picture.
func (h *NarrationHandler) ExecutiveSummary(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{Municipality: c.Query("municipality")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	now := time.Now()
	narration := h.narrator.ExecutiveSummary(c.Request.Context(),
		services.Summarize(issues), services.DepartmentPerformance(issues), services.CouncillorLeaderboard(issues, h.ref, now))
	c.JSON(http.StatusOK, gin.H{"narration": narration})
}

// WardHealth narrates the ward comparison for an official's
// municipality.
func (h *NarrationHandler) WardHealth(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	municipality := p.Municipality
	if municipality == "" {
		municipality = c.Query("municipality")
	}

	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{Municipality: municipality})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	narration := h.narrator.WardHealthSummary(c.Request.Context(), municipality, services.WardPerformance(issues))
	c.JSON(http.StatusOK, gin.H{"narration": narration})
}
