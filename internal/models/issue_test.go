package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueStatusHelpers(t *testing.T) {
	assert.True(t, (&Issue{Status: StatusPending}).IsOpen())
	assert.True(t, (&Issue{Status: StatusInProgress}).IsOpen())
	assert.False(t, (&Issue{Status: StatusResolved}).IsOpen())
	assert.True(t, (&Issue{Status: StatusResolved}).IsResolved())
}

func TestResolutionTime(t *testing.T) {
	reported := time.Now().Add(-72 * time.Hour)
	resolved := reported.Add(48 * time.Hour)

	t.Run("resolved with timestamp", func(t *testing.T) {
		issue := Issue{Status: StatusResolved, ReportedAt: reported, ResolvedAt: &resolved}
		d, ok := issue.ResolutionTime()
		require.True(t, ok)
		assert.Equal(t, 48*time.Hour, d)
	})

	t.Run("open issue has none", func(t *testing.T) {
		issue := Issue{Status: StatusPending, ReportedAt: reported}
		_, ok := issue.ResolutionTime()
		assert.False(t, ok)
	})
}

func TestIsCritical(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		issue Issue
		want  bool
	}{
		{"old open high", Issue{Status: StatusPending, Priority: PriorityHigh, ReportedAt: now.Add(-4 * 24 * time.Hour)}, true},
		{"old in-progress high", Issue{Status: StatusInProgress, Priority: PriorityHigh, ReportedAt: now.Add(-4 * 24 * time.Hour)}, true},
		{"fresh high", Issue{Status: StatusPending, Priority: PriorityHigh, ReportedAt: now.Add(-time.Hour)}, false},
		{"old medium", Issue{Status: StatusPending, Priority: PriorityMedium, ReportedAt: now.Add(-10 * 24 * time.Hour)}, false},
		{"old resolved high", Issue{Status: StatusResolved, Priority: PriorityHigh, ReportedAt: now.Add(-10 * 24 * time.Hour)}, false},
		{"exactly at the age boundary", Issue{Status: StatusPending, Priority: PriorityHigh, ReportedAt: now.Add(-CriticalAge)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.issue.IsCritical(now))
		})
	}
}

func TestIsNew(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Issue{ReportedAt: now.Add(-time.Hour)}).IsNew(now))
	assert.False(t, (&Issue{ReportedAt: now.Add(-25 * time.Hour)}).IsNew(now))
}

func TestPriorityRank(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
}

func TestCategoryValidation(t *testing.T) {
	for _, category := range AllCategories() {
		assert.True(t, category.IsValid())
	}
	assert.False(t, IssueCategory("Broken Teleporter").IsValid())
	assert.False(t, IssueCategory("").IsValid())
}

func TestLatestEvent(t *testing.T) {
	first := HistoryEvent{ID: "a", Type: HistoryCreated}
	second := HistoryEvent{ID: "b", Type: HistoryComment}

	issue := Issue{History: []HistoryEvent{first, second}}
	latest := issue.LatestEvent()
	require.NotNil(t, latest)
	assert.Equal(t, "b", latest.ID)

	assert.Nil(t, (&Issue{}).LatestEvent())
}

func TestCommentCount(t *testing.T) {
	issue := Issue{History: []HistoryEvent{
		{Type: HistoryCreated},
		{Type: HistoryComment},
		{Type: HistoryStatusChanged},
		{Type: HistoryComment},
	}}
	assert.Equal(t, 2, issue.CommentCount())
}
