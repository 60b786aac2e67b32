package handlers

import (
	"net/http"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"
	"freestate-servicedelivery/internal/services"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the role dashboards and the public transparency
// page. Each endpoint loads the issues in the viewer's scope and runs
// the aggregation reducers over them.
type StatsHandler struct {
	issues *services.IssueService
	users  *services.UserService
	ref    *reference.Set
}

func NewStatsHandler(issues *services.IssueService, users *services.UserService, ref *reference.Set) *StatsHandler {
	return &StatsHandler{issues: issues, users: users, ref: ref}
}

// ResidentDashboard returns the resident's personal KPIs against ward
// and municipality baselines.
func (h *StatsHandler) ResidentDashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	mine, err := h.issues.List(ctx, services.IssueFilter{ResidentID: &p.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	wardIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality, Ward: p.Ward})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	municipalIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":       services.ResidentSummaryFor(mine, wardIssues, municipalIssues),
		"recent_issues": mine,
	})
}

// CouncillorDashboard returns ward-level statistics for the ward the
// councillor represents.
func (h *StatsHandler) CouncillorDashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	wardIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality, Ward: p.Ward})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"summary":            services.Summarize(wardIssues),
		"sentiment":          services.SentimentOf(wardIssues),
		"trend":              services.TrendSeries(wardIssues, now),
		"category_breakdown": services.CategoryBreakdown(wardIssues),
		"critical_issues":    services.CriticalIssues(wardIssues, now),
		"new_issues":         services.NewIssues(wardIssues, now),
	})
}

// OfficialDashboard returns department-level statistics plus the
// worker load table.
func (h *StatsHandler) OfficialDashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	departmentIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality, Department: p.Department})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	workers, err := h.users.ListWorkers(ctx, p.Municipality, p.Department)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workers"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"summary":             services.Summarize(departmentIssues),
		"pending_by_priority": services.PendingByPriority(departmentIssues),
		"trend":               services.TrendSeries(departmentIssues, now),
		"worker_performance":  services.WorkerPerformance(departmentIssues, workers, now),
		"critical_issues":     services.CriticalIssues(departmentIssues, now),
		"ward_performance":    services.WardPerformance(departmentIssues),
	})
}

// WorkerDashboard returns the worker's own task view against the
// department baseline.
func (h *StatsHandler) WorkerDashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	assigned, err := h.issues.List(ctx, services.IssueFilter{AssignedTo: &p.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	departmentIssues, err := h.issues.List(ctx, services.IssueFilter{Municipality: p.Municipality, Department: p.Department})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	now := time.Now()
	backlog := []models.Issue{}
	for _, issue := range departmentIssues {
		if !issue.IsAssigned() && issue.IsOpen() {
			backlog = append(backlog, issue)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":  services.WorkerSummaryFor(assigned, departmentIssues, now),
		"my_tasks": assigned,
		"backlog":  backlog,
	})
}

// ExecutiveDashboard returns the cross-municipality view: department
// comparison, councillor leaderboard and ward performance. An optional
// municipality query narrows the scope.
func (h *StatsHandler) ExecutiveDashboard(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{Municipality: c.Query("municipality")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"summary":                services.Summarize(issues),
		"sentiment":              services.SentimentOf(issues),
		"avg_resolution_time":    services.AvgResolutionTime(issues),
		"median_resolution_time": services.MedianResolutionTime(issues),
		"trend":                  services.TrendSeries(issues, now),
		"department_performance": services.DepartmentPerformance(issues),
		"councillor_leaderboard": services.CouncillorLeaderboard(issues, h.ref, now),
		"ward_performance":       services.WardPerformance(issues),
		"critical_issues":        services.CriticalIssues(issues, now),
	})
}

// AdminDashboard returns platform-wide operational counters.
func (h *StatsHandler) AdminDashboard(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	userCount, err := h.users.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":            services.Summarize(issues),
		"category_breakdown": services.CategoryBreakdown(issues),
		"total_users":        userCount,
	})
}

// Transparency serves the public accountability page for one
// municipality. No authentication; photos and reporter identities are
// never included because the reducers only return aggregates.
func (h *StatsHandler) Transparency(c *gin.Context) {
	municipality := c.Query("municipality")
	if municipality == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Municipality is required"})
		return
	}
	if _, known := h.ref.Municipalities[municipality]; !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown municipality"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	issues, err := h.issues.List(ctx, services.IssueFilter{Municipality: municipality})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"municipality":        municipality,
		"summary":             services.Summarize(issues),
		"sentiment":           services.SentimentOf(issues),
		"avg_resolution_time": services.AvgResolutionTime(issues),
		"trend":               services.TrendSeries(issues, now),
		"category_breakdown":  services.CategoryBreakdown(issues),
		"ward_performance":    services.WardPerformance(issues),
	})
}
