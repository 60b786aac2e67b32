package services

import (
	"testing"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func issueAt(status models.IssueStatus, priority models.IssuePriority, reported time.Time) models.Issue {
	return models.Issue{
		ID:         primitive.NewObjectID(),
		Category:   models.CategoryPothole,
		Status:     status,
		Priority:   priority,
		ReportedAt: reported,
	}
}

func resolvedIssue(reported, resolved time.Time) models.Issue {
	issue := issueAt(models.StatusResolved, models.PriorityMedium, reported)
	issue.ResolvedAt = &resolved
	return issue
}

func ratedIssue(reported, resolved time.Time, rating models.ResidentRating) models.Issue {
	issue := resolvedIssue(reported, resolved)
	issue.Rating = &rating
	return issue
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	issues := []models.Issue{
		issueAt(models.StatusPending, models.PriorityHigh, now),
		issueAt(models.StatusPending, models.PriorityLow, now),
		issueAt(models.StatusInProgress, models.PriorityHigh, now),
		resolvedIssue(now.Add(-48*time.Hour), now),
	}

	summary := Summarize(issues)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 1, summary.InProgress)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, summary.HighPriorityPending)
	assert.Equal(t, 25.0, summary.ResolutionRate)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.ResolutionRate)
}

func TestResolutionRateBounds(t *testing.T) {
	assert.Equal(t, 0.0, ResolutionRate(0, 0))
	assert.Equal(t, 100.0, ResolutionRate(3, 3))
	assert.Equal(t, 33.3, ResolutionRate(1, 3))
}

func TestAvgResolutionTime(t *testing.T) {
	now := time.Now()

	assert.Nil(t, AvgResolutionTime(nil))
	assert.Nil(t, AvgResolutionTime([]models.Issue{
		issueAt(models.StatusPending, models.PriorityLow, now),
	}))

	issues := []models.Issue{
		resolvedIssue(now.Add(-2*time.Hour), now),
		resolvedIssue(now.Add(-4*time.Hour), now),
	}
	avg := AvgResolutionTime(issues)
	require.NotNil(t, avg)
	assert.Equal(t, 3*time.Hour, *avg)
}

func TestSentimentOf(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	t.Run("no ratings", func(t *testing.T) {
		sentiment := SentimentOf([]models.Issue{resolvedIssue(earlier, now)})
		assert.Equal(t, 0, sentiment.Satisfied)
		assert.Equal(t, 0.0, sentiment.PositivePercentage)
	})

	t.Run("mixed ratings", func(t *testing.T) {
		sentiment := SentimentOf([]models.Issue{
			ratedIssue(earlier, now, models.RatingSatisfied),
			ratedIssue(earlier, now, models.RatingSatisfied),
			ratedIssue(earlier, now, models.RatingUnsatisfied),
			resolvedIssue(earlier, now), // unrated, excluded
		})
		assert.Equal(t, 2, sentiment.Satisfied)
		assert.Equal(t, 1, sentiment.Unsatisfied)
		assert.Equal(t, 66.7, sentiment.PositivePercentage)
	})
}

func TestTrendSeriesShape(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	series := TrendSeries(nil, now)

	require.Len(t, series, 30)
	assert.Equal(t, "2026-02-14", series[0].Date)
	assert.Equal(t, "2026-03-15", series[29].Date)
	for i := 1; i < len(series); i++ {
		prev, _ := time.Parse("2006-01-02", series[i-1].Date)
		cur, _ := time.Parse("2006-01-02", series[i].Date)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev), "series must be contiguous")
	}
}

func TestTrendSeriesCountsIndependently(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	// Reported outside the window, resolved inside it.
	old := resolvedIssue(now.AddDate(0, 0, -45), now.AddDate(0, 0, -1))
	// Reported inside the window, unresolved.
	fresh := issueAt(models.StatusPending, models.PriorityLow, now.AddDate(0, 0, -2))

	series := TrendSeries([]models.Issue{old, fresh}, now)

	totalReported, totalResolved := 0, 0
	for _, point := range series {
		totalReported += point.Reported
		totalResolved += point.Resolved
	}
	assert.Equal(t, 1, totalReported)
	assert.Equal(t, 1, totalResolved)
	assert.Equal(t, 1, series[28].Resolved)
	assert.Equal(t, 1, series[27].Reported)
}

func TestCategoryBreakdownSort(t *testing.T) {
	now := time.Now()
	inCategory := func(category models.IssueCategory) models.Issue {
		issue := issueAt(models.StatusPending, models.PriorityLow, now)
		issue.Category = category
		return issue
	}

	rows := CategoryBreakdown([]models.Issue{
		inCategory(models.CategoryPothole),
		inCategory(models.CategoryWaterLeak),
		inCategory(models.CategoryWaterLeak),
		inCategory(models.CategorySewage),
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "Water Leak", rows[0].Name)
	assert.Equal(t, 2, rows[0].Count)
	// Tie between Pothole and Sewage Problem broken lexicographically.
	assert.Equal(t, "Pothole", rows[1].Name)
	assert.Equal(t, "Sewage Problem", rows[2].Name)
}

func TestPendingByPriority(t *testing.T) {
	now := time.Now()
	rows := PendingByPriority([]models.Issue{
		issueAt(models.StatusPending, models.PriorityLow, now),
		issueAt(models.StatusPending, models.PriorityLow, now),
		issueAt(models.StatusPending, models.PriorityHigh, now),
		issueAt(models.StatusInProgress, models.PriorityMedium, now),
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "High", rows[0].Name)
	assert.Equal(t, 1, rows[0].Count)
	assert.Equal(t, "Low", rows[1].Name)
	assert.Equal(t, 2, rows[1].Count)
}

func TestCouncillorLeaderboardSeedsEveryCouncillor(t *testing.T) {
	ref := reference.Defaults()
	now := time.Now()

	rows := CouncillorLeaderboard(nil, ref, now)
	require.Len(t, rows, len(ref.Councillors))
	for _, row := range rows {
		assert.Zero(t, row.TotalIssues)
		assert.Zero(t, row.ResolutionRate)
		assert.Len(t, row.Trend, 30)
	}
}

func TestCouncillorLeaderboardOrdering(t *testing.T) {
	ref := reference.Defaults()
	now := time.Now()
	earlier := now.Add(-time.Hour)

	withCouncillor := func(issue models.Issue, ward int) models.Issue {
		issue.Ward = ward
		issue.Councillor = ref.CouncillorForWard(ward)
		return issue
	}

	issues := []models.Issue{
		// Ward 1: 1/2 resolved = 50%
		withCouncillor(resolvedIssue(earlier, now), 1),
		withCouncillor(issueAt(models.StatusPending, models.PriorityLow, now), 1),
		// Ward 2: 1/1 resolved = 100%
		withCouncillor(resolvedIssue(earlier, now), 2),
	}

	rows := CouncillorLeaderboard(issues, ref, now)
	require.NotEmpty(t, rows)
	assert.Equal(t, ref.CouncillorForWard(2), rows[0].Councillor)
	assert.Equal(t, 100.0, rows[0].ResolutionRate)
	assert.Equal(t, ref.CouncillorForWard(1), rows[1].Councillor)

	// Councillors without issues sort below everyone with a rate.
	last := rows[len(rows)-1]
	assert.Zero(t, last.TotalIssues)
}

func TestDepartmentPerformanceSeedsAllDepartments(t *testing.T) {
	rows := DepartmentPerformance(nil)
	assert.Len(t, rows, len(models.AllDepartments()))
}

func TestWardPerformanceOrdering(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	inWard := func(issue models.Issue, ward int) models.Issue {
		issue.Ward = ward
		return issue
	}

	rows := WardPerformance([]models.Issue{
		inWard(resolvedIssue(earlier, now), 3),
		inWard(issueAt(models.StatusPending, models.PriorityLow, now), 1),
		inWard(resolvedIssue(earlier, now), 2),
		inWard(issueAt(models.StatusPending, models.PriorityLow, now), 2),
	})

	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].Ward) // 100%
	assert.Equal(t, 2, rows[1].Ward) // 50%
	assert.Equal(t, 1, rows[2].Ward) // 0%
}

func TestWorkerPerformance(t *testing.T) {
	now := time.Now()
	alpha := models.User{ID: primitive.NewObjectID(), Name: "Alpha"}
	beta := models.User{ID: primitive.NewObjectID(), Name: "Beta"}

	assigned := func(issue models.Issue, worker models.User) models.Issue {
		issue.AssignedTo = &worker.ID
		return issue
	}

	recentResolved := resolvedIssue(now.Add(-72*time.Hour), now.Add(-24*time.Hour))
	staleResolved := resolvedIssue(now.Add(-30*24*time.Hour), now.Add(-20*24*time.Hour))

	issues := []models.Issue{
		assigned(issueAt(models.StatusInProgress, models.PriorityHigh, now), beta),
		assigned(recentResolved, alpha),
		assigned(staleResolved, alpha),
	}

	rows := WorkerPerformance(issues, []models.User{alpha, beta}, now)
	require.Len(t, rows, 2)

	// Beta carries the active load and sorts first.
	assert.Equal(t, "Beta", rows[0].Name)
	assert.Equal(t, 1, rows[0].ActiveIssues)
	assert.Equal(t, "Alpha", rows[1].Name)
	assert.Equal(t, 0, rows[1].ActiveIssues)
	assert.Equal(t, 1, rows[1].ResolvedLast7Days)
}

func TestWorkerSummaryFor(t *testing.T) {
	now := time.Now()
	assigned := []models.Issue{
		issueAt(models.StatusInProgress, models.PriorityHigh, now),
		resolvedIssue(now.Add(-48*time.Hour), now.Add(-12*time.Hour)),
	}

	summary := WorkerSummaryFor(assigned, assigned, now)
	assert.Equal(t, 1, summary.ActiveTasks)
	assert.Equal(t, 1, summary.ResolvedThisWeek)
	require.NotNil(t, summary.AvgResolutionTime)
	assert.Equal(t, 36*time.Hour, *summary.AvgResolutionTime)
}

func TestResidentSummaryFor(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	mine := []models.Issue{
		issueAt(models.StatusPending, models.PriorityLow, now),
		ratedIssue(earlier, now, models.RatingSatisfied),
		resolvedIssue(earlier, now),
	}

	summary := ResidentSummaryFor(mine, mine, mine)
	assert.Equal(t, 3, summary.MyTotalIssues)
	assert.Equal(t, 1, summary.MyOpenIssues)
	assert.Equal(t, 2, summary.MyResolvedIssues)
	require.NotNil(t, summary.MySatisfaction)
	assert.Equal(t, 100.0, *summary.MySatisfaction)
	assert.Equal(t, 66.7, summary.WardResolutionRate)
}

func TestResidentSummaryNoRatings(t *testing.T) {
	now := time.Now()
	summary := ResidentSummaryFor([]models.Issue{resolvedIssue(now.Add(-time.Hour), now)}, nil, nil)
	assert.Nil(t, summary.MySatisfaction)
}

func TestCriticalIssues(t *testing.T) {
	now := time.Now()

	oldHigh := issueAt(models.StatusPending, models.PriorityHigh, now.Add(-5*24*time.Hour))
	olderHigh := issueAt(models.StatusInProgress, models.PriorityHigh, now.Add(-10*24*time.Hour))
	freshHigh := issueAt(models.StatusPending, models.PriorityHigh, now.Add(-24*time.Hour))
	oldLow := issueAt(models.StatusPending, models.PriorityLow, now.Add(-10*24*time.Hour))
	oldResolved := resolvedIssue(now.Add(-10*24*time.Hour), now)
	oldResolved.Priority = models.PriorityHigh

	critical := CriticalIssues([]models.Issue{oldHigh, olderHigh, freshHigh, oldLow, oldResolved}, now)

	require.Len(t, critical, 2)
	assert.Equal(t, olderHigh.ID, critical[0].ID, "oldest first")
	assert.Equal(t, oldHigh.ID, critical[1].ID)
}

func TestCriticalIssuesBoundary(t *testing.T) {
	now := time.Now()

	// Exactly three days old does not qualify; just over does.
	atBoundary := issueAt(models.StatusPending, models.PriorityHigh, now.Add(-models.CriticalAge))
	over := issueAt(models.StatusPending, models.PriorityHigh, now.Add(-models.CriticalAge-time.Minute))

	critical := CriticalIssues([]models.Issue{atBoundary, over}, now)
	require.Len(t, critical, 1)
	assert.Equal(t, over.ID, critical[0].ID)
}

func TestNewIssuesOrder(t *testing.T) {
	now := time.Now()
	recent := issueAt(models.StatusPending, models.PriorityLow, now.Add(-2*time.Hour))
	newer := issueAt(models.StatusPending, models.PriorityLow, now.Add(-30*time.Minute))
	old := issueAt(models.StatusPending, models.PriorityLow, now.Add(-30*time.Hour))

	recentIssues := NewIssues([]models.Issue{recent, old, newer}, now)
	require.Len(t, recentIssues, 2)
	assert.Equal(t, newer.ID, recentIssues[0].ID)
	assert.Equal(t, recent.ID, recentIssues[1].ID)
}
