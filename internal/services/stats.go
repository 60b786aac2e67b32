// internal/services/stats.go
//
// The aggregation engine: a family of stateless reducers computing
// dashboard statistics over a slice of issues. Callers pre-filter the
// slice to the viewer's scope (own reports, one ward, one department,
// one municipality, or everything). Every reducer is a pure function
// of its inputs and is safe to call repeatedly; time-dependent ones
// take now explicitly.
package services

import (
	"math"
	"sort"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"

	mathstats "github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// trendDays is the length of the trailing trend window, in calendar
// days including today.
const trendDays = 30

const dayFormat = "2006-01-02"

// Summary carries the headline counters for one scope.
type Summary struct {
	Total               int     `json:"total"`
	Pending             int     `json:"pending"`
	InProgress          int     `json:"in_progress"`
	Resolved            int     `json:"resolved"`
	HighPriorityPending int     `json:"high_priority_pending"`
	ResolutionRate      float64 `json:"resolution_rate"`
}

// Summarize counts issues by status and computes the resolution rate.
func Summarize(issues []models.Issue) Summary {
	summary := Summary{Total: len(issues)}
	for _, issue := range issues {
		switch issue.Status {
		case models.StatusPending:
			summary.Pending++
			if issue.Priority == models.PriorityHigh {
				summary.HighPriorityPending++
			}
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusResolved:
			summary.Resolved++
		}
	}
	summary.ResolutionRate = ResolutionRate(summary.Resolved, summary.Total)
	return summary
}

// ResolutionRate is resolved/total as a percentage, defined as 0 for
// an empty scope so it is always within [0,100].
func ResolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(resolved) / float64(total) * 100)
}

// AvgResolutionTime is the mean time from report to resolution over
// issues that are resolved and carry a resolution timestamp. nil means
// no such issue exists, which is distinct from a zero duration.
func AvgResolutionTime(issues []models.Issue) *time.Duration {
	durations := resolutionDurations(issues)
	if len(durations) == 0 {
		return nil
	}
	mean, err := mathstats.Mean(durations)
	if err != nil {
		return nil
	}
	avg := time.Duration(mean)
	return &avg
}

// MedianResolutionTime is the median counterpart of AvgResolutionTime,
// less sensitive to a handful of long-running issues.
func MedianResolutionTime(issues []models.Issue) *time.Duration {
	durations := resolutionDurations(issues)
	if len(durations) == 0 {
		return nil
	}
	median, err := mathstats.Median(durations)
	if err != nil {
		return nil
	}
	result := time.Duration(median)
	return &result
}

func resolutionDurations(issues []models.Issue) []float64 {
	durations := []float64{}
	for _, issue := range issues {
		if d, ok := issue.ResolutionTime(); ok {
			durations = append(durations, float64(d))
		}
	}
	return durations
}

// Sentiment is the aggregate satisfaction signal from post-resolution
// ratings.
type Sentiment struct {
	Satisfied          int     `json:"satisfied"`
	Unsatisfied        int     `json:"unsatisfied"`
	PositivePercentage float64 `json:"positive_percentage"`
}

// SentimentOf counts ratings among resolved issues. The percentage is
// 0 when nothing has been rated.
func SentimentOf(issues []models.Issue) Sentiment {
	var sentiment Sentiment
	for _, issue := range issues {
		if !issue.IsResolved() || issue.Rating == nil {
			continue
		}
		switch *issue.Rating {
		case models.RatingSatisfied:
			sentiment.Satisfied++
		case models.RatingUnsatisfied:
			sentiment.Unsatisfied++
		}
	}
	rated := sentiment.Satisfied + sentiment.Unsatisfied
	if rated > 0 {
		sentiment.PositivePercentage = round1(float64(sentiment.Satisfied) / float64(rated) * 100)
	}
	return sentiment
}

// TrendPoint is one calendar-day bucket of the trend series.
type TrendPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Reported int    `json:"reported"`
	Resolved int    `json:"resolved"`
}

// TrendSeries buckets report and resolution activity per calendar day
// over the trailing 30 days including today, oldest first. The two
// counters are independent: an issue reported before the window but
// resolved inside it counts on the resolved side only. The series
// always has exactly 30 contiguous entries.
func TrendSeries(issues []models.Issue, now time.Time) []TrendPoint {
	series := make([]TrendPoint, trendDays)
	index := make(map[string]int, trendDays)

	start := now.AddDate(0, 0, -(trendDays - 1))
	for i := 0; i < trendDays; i++ {
		date := start.AddDate(0, 0, i).Format(dayFormat)
		series[i] = TrendPoint{Date: date}
		index[date] = i
	}

	for _, issue := range issues {
		if i, ok := index[issue.ReportedAt.Format(dayFormat)]; ok {
			series[i].Reported++
		}
		if issue.ResolvedAt != nil {
			if i, ok := index[issue.ResolvedAt.Format(dayFormat)]; ok {
				series[i].Resolved++
			}
		}
	}

	return series
}

// BreakdownRow is one group-by-count row.
type BreakdownRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryBreakdown counts issues per category, sorted by count
// descending with a lexicographic tie-break so the ordering is
// deterministic.
func CategoryBreakdown(issues []models.Issue) []BreakdownRow {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[string(issue.Category)]++
	}

	rows := make([]BreakdownRow, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, BreakdownRow{Name: name, Count: count})
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].Count != rows[b].Count {
			return rows[a].Count > rows[b].Count
		}
		return rows[a].Name < rows[b].Name
	})
	return rows
}

// PendingByPriority counts pending issues per priority, High first.
// Priorities with no pending issues are omitted.
func PendingByPriority(issues []models.Issue) []BreakdownRow {
	counts := make(map[models.IssuePriority]int)
	for _, issue := range issues {
		if issue.Status == models.StatusPending {
			counts[issue.Priority]++
		}
	}

	rows := []BreakdownRow{}
	for _, priority := range []models.IssuePriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		if counts[priority] > 0 {
			rows = append(rows, BreakdownRow{Name: string(priority), Count: counts[priority]})
		}
	}
	return rows
}

// CouncillorRow is one leaderboard entry. Every councillor from the
// reference data appears, including those with zero issues.
type CouncillorRow struct {
	Councillor        string         `json:"councillor"`
	Ward              int            `json:"ward"`
	TotalIssues       int            `json:"total_issues"`
	ResolvedIssues    int            `json:"resolved_issues"`
	ResolutionRate    float64        `json:"resolution_rate"`
	AvgResolutionTime *time.Duration `json:"avg_resolution_time_ms,omitempty"`
	Sentiment         Sentiment      `json:"sentiment"`
	CategoryBreakdown []BreakdownRow `json:"category_breakdown"`
	Trend             []TrendPoint   `json:"trend"`
}

// CouncillorLeaderboard ranks councillors by resolution rate. All
// councillors known to the reference data are pre-seeded with zero
// rows so nobody silently drops off the board. Ties on rate are broken
// by raw issue count ascending (fewer issues ranks lower), then name.
func CouncillorLeaderboard(issues []models.Issue, ref *reference.Set, now time.Time) []CouncillorRow {
	byCouncillor := make(map[string][]models.Issue)
	wards := make(map[string]int)

	for ward, name := range ref.Councillors {
		byCouncillor[name] = nil
		wards[name] = ward
	}
	for _, issue := range issues {
		byCouncillor[issue.Councillor] = append(byCouncillor[issue.Councillor], issue)
		if _, known := wards[issue.Councillor]; !known {
			wards[issue.Councillor] = issue.Ward
		}
	}

	rows := make([]CouncillorRow, 0, len(byCouncillor))
	for name, scoped := range byCouncillor {
		summary := Summarize(scoped)
		rows = append(rows, CouncillorRow{
			Councillor:        name,
			Ward:              wards[name],
			TotalIssues:       summary.Total,
			ResolvedIssues:    summary.Resolved,
			ResolutionRate:    summary.ResolutionRate,
			AvgResolutionTime: AvgResolutionTime(scoped),
			Sentiment:         SentimentOf(scoped),
			CategoryBreakdown: CategoryBreakdown(scoped),
			Trend:             TrendSeries(scoped, now),
		})
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].ResolutionRate != rows[b].ResolutionRate {
			return rows[a].ResolutionRate > rows[b].ResolutionRate
		}
		if rows[a].TotalIssues != rows[b].TotalIssues {
			return rows[a].TotalIssues < rows[b].TotalIssues
		}
		return rows[a].Councillor < rows[b].Councillor
	})
	return rows
}

// DepartmentRow is one department performance entry.
type DepartmentRow struct {
	Department        models.Department `json:"department"`
	TotalIssues       int               `json:"total_issues"`
	ResolvedIssues    int               `json:"resolved_issues"`
	ResolutionRate    float64           `json:"resolution_rate"`
	AvgResolutionTime *time.Duration    `json:"avg_resolution_time_ms,omitempty"`
}

// DepartmentPerformance aggregates per department, pre-seeding every
// known department so the comparison is complete. Sorted by resolution
// rate descending, name ascending on ties.
func DepartmentPerformance(issues []models.Issue) []DepartmentRow {
	byDept := make(map[models.Department][]models.Issue)
	for _, dept := range models.AllDepartments() {
		byDept[dept] = nil
	}
	for _, issue := range issues {
		byDept[issue.Department] = append(byDept[issue.Department], issue)
	}

	rows := make([]DepartmentRow, 0, len(byDept))
	for dept, scoped := range byDept {
		summary := Summarize(scoped)
		rows = append(rows, DepartmentRow{
			Department:        dept,
			TotalIssues:       summary.Total,
			ResolvedIssues:    summary.Resolved,
			ResolutionRate:    summary.ResolutionRate,
			AvgResolutionTime: AvgResolutionTime(scoped),
		})
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].ResolutionRate != rows[b].ResolutionRate {
			return rows[a].ResolutionRate > rows[b].ResolutionRate
		}
		return rows[a].Department < rows[b].Department
	})
	return rows
}

// WardRow is one ward performance entry. The councillor name is the
// snapshot recorded on the ward's issues.
type WardRow struct {
	Ward           int     `json:"ward"`
	Councillor     string  `json:"councillor"`
	TotalIssues    int     `json:"total_issues"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// WardPerformance aggregates per ward over the given scope, sorted by
// resolution rate descending, ward number ascending on ties.
func WardPerformance(issues []models.Issue) []WardRow {
	type wardAgg struct {
		total      int
		resolved   int
		councillor string
	}
	byWard := make(map[int]*wardAgg)
	for _, issue := range issues {
		agg, ok := byWard[issue.Ward]
		if !ok {
			agg = &wardAgg{councillor: issue.Councillor}
			byWard[issue.Ward] = agg
		}
		agg.total++
		if issue.IsResolved() {
			agg.resolved++
		}
	}

	rows := make([]WardRow, 0, len(byWard))
	for ward, agg := range byWard {
		rows = append(rows, WardRow{
			Ward:           ward,
			Councillor:     agg.councillor,
			TotalIssues:    agg.total,
			ResolutionRate: ResolutionRate(agg.resolved, agg.total),
		})
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].ResolutionRate != rows[b].ResolutionRate {
			return rows[a].ResolutionRate > rows[b].ResolutionRate
		}
		return rows[a].Ward < rows[b].Ward
	})
	return rows
}

// WorkerRow is one entry of the official's worker load table.
type WorkerRow struct {
	ID                primitive.ObjectID `json:"id"`
	Name              string             `json:"name"`
	ActiveIssues      int                `json:"active_issues"`
	ResolvedLast7Days int                `json:"resolved_last_7_days"`
}

// WorkerPerformance computes per-worker load over the department's
// issues. Every listed worker appears even with zero assignments.
// Sorted by active load descending, name ascending on ties.
func WorkerPerformance(issues []models.Issue, workers []models.User, now time.Time) []WorkerRow {
	weekAgo := now.Add(-7 * 24 * time.Hour)

	rows := make([]WorkerRow, 0, len(workers))
	for _, worker := range workers {
		row := WorkerRow{ID: worker.ID, Name: worker.Name}
		for _, issue := range issues {
			if issue.AssignedTo == nil || *issue.AssignedTo != worker.ID {
				continue
			}
			if issue.IsOpen() {
				row.ActiveIssues++
			} else if issue.ResolvedAt != nil && issue.ResolvedAt.After(weekAgo) {
				row.ResolvedLast7Days++
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].ActiveIssues != rows[b].ActiveIssues {
			return rows[a].ActiveIssues > rows[b].ActiveIssues
		}
		return rows[a].Name < rows[b].Name
	})
	return rows
}

// WorkerSummary is the worker's own dashboard header.
type WorkerSummary struct {
	ActiveTasks                 int            `json:"active_tasks"`
	ResolvedThisWeek            int            `json:"resolved_this_week"`
	AvgResolutionTime           *time.Duration `json:"avg_resolution_time_ms,omitempty"`
	DepartmentAvgResolutionTime *time.Duration `json:"department_avg_resolution_time_ms,omitempty"`
}

// WorkerSummaryFor summarizes a worker's assigned issues against the
// department baseline.
func WorkerSummaryFor(assigned, departmentIssues []models.Issue, now time.Time) WorkerSummary {
	weekAgo := now.Add(-7 * 24 * time.Hour)

	summary := WorkerSummary{
		AvgResolutionTime:           AvgResolutionTime(assigned),
		DepartmentAvgResolutionTime: AvgResolutionTime(departmentIssues),
	}
	for _, issue := range assigned {
		if issue.IsOpen() {
			summary.ActiveTasks++
		} else if issue.ResolvedAt != nil && issue.ResolvedAt.After(weekAgo) {
			summary.ResolvedThisWeek++
		}
	}
	return summary
}

// ResidentSummary is the resident's dashboard header: personal KPIs
// with ward and municipality baselines for comparison.
type ResidentSummary struct {
	MyTotalIssues    int      `json:"my_total_issues"`
	MyOpenIssues     int      `json:"my_open_issues"`
	MyResolvedIssues int      `json:"my_resolved_issues"`
	MySatisfaction   *float64 `json:"my_satisfaction_rate,omitempty"`

	WardResolutionRate    float64        `json:"ward_resolution_rate"`
	WardAvgResolutionTime *time.Duration `json:"ward_avg_resolution_time_ms,omitempty"`

	MunicipalityResolutionRate    float64        `json:"municipality_resolution_rate"`
	MunicipalityAvgResolutionTime *time.Duration `json:"municipality_avg_resolution_time_ms,omitempty"`
}

// ResidentSummaryFor computes the resident view. MySatisfaction is nil
// until the resident has rated at least one resolved issue.
func ResidentSummaryFor(mine, wardIssues, municipalIssues []models.Issue) ResidentSummary {
	summary := ResidentSummary{MyTotalIssues: len(mine)}
	satisfied, rated := 0, 0
	for _, issue := range mine {
		if issue.IsOpen() {
			summary.MyOpenIssues++
			continue
		}
		summary.MyResolvedIssues++
		if issue.Rating != nil {
			rated++
			if *issue.Rating == models.RatingSatisfied {
				satisfied++
			}
		}
	}
	if rated > 0 {
		rate := round1(float64(satisfied) / float64(rated) * 100)
		summary.MySatisfaction = &rate
	}

	wardSummary := Summarize(wardIssues)
	summary.WardResolutionRate = wardSummary.ResolutionRate
	summary.WardAvgResolutionTime = AvgResolutionTime(wardIssues)

	muniSummary := Summarize(municipalIssues)
	summary.MunicipalityResolutionRate = muniSummary.ResolutionRate
	summary.MunicipalityAvgResolutionTime = AvgResolutionTime(municipalIssues)

	return summary
}

// CriticalIssues filters the scope down to critical hotspots: high
// priority, still open, older than three days. Oldest first.
func CriticalIssues(issues []models.Issue, now time.Time) []models.Issue {
	critical := []models.Issue{}
	for _, issue := range issues {
		if issue.IsCritical(now) {
			critical = append(critical, issue)
		}
	}
	sort.Slice(critical, func(a, b int) bool {
		return critical[a].ReportedAt.Before(critical[b].ReportedAt)
	})
	return critical
}

// NewIssues filters the scope to issues reported in the last 24 hours,
// newest first.
func NewIssues(issues []models.Issue, now time.Time) []models.Issue {
	recent := []models.Issue{}
	for _, issue := range issues {
		if issue.IsNew(now) {
			recent = append(recent, issue)
		}
	}
	sort.Slice(recent, func(a, b int) bool {
		return recent[a].ReportedAt.After(recent[b].ReportedAt)
	})
	return recent
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
