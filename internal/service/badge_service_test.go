package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeQualifies(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	firstAction := now.AddDate(0, 0, -45)
	recentFirst := now.AddDate(0, 0, -10)

	tests := []struct {
		name  string
		badge model.Badge
		stats badgeStats
		want  bool
	}{
		{
			name:  "streak met",
			badge: model.Badge{CriteriaType: model.CriteriaStreak, CriteriaValue: 7},
			stats: badgeStats{CurrentStreak: 7},
			want:  true,
		},
		{
			name:  "streak below threshold",
			badge: model.Badge{CriteriaType: model.CriteriaStreak, CriteriaValue: 7},
			stats: badgeStats{CurrentStreak: 6},
			want:  false,
		},
		{
			name:  "total actions met",
			badge: model.Badge{CriteriaType: model.CriteriaTotalActions, CriteriaValue: 10},
			stats: badgeStats{TotalActions: 12},
			want:  true,
		},
		{
			name:  "feedback received met",
			badge: model.Badge{CriteriaType: model.CriteriaFeedbackReceived, CriteriaValue: 5},
			stats: badgeStats{FeedbackReceived: 5},
			want:  true,
		},
		{
			name:  "revision count below threshold",
			badge: model.Badge{CriteriaType: model.CriteriaRevisionCount, CriteriaValue: 3},
			stats: badgeStats{RevisionCount: 2},
			want:  false,
		},
		{
			name:  "reflection posts met",
			badge: model.Badge{CriteriaType: model.CriteriaReflectionPosts, CriteriaValue: 5},
			stats: badgeStats{ReflectionPosts: 8},
			want:  true,
		},
		{
			name:  "time based met",
			badge: model.Badge{CriteriaType: model.CriteriaTimeBased, CriteriaValue: 30},
			stats: badgeStats{FirstActionAt: &firstAction},
			want:  true,
		},
		{
			name:  "time based not yet",
			badge: model.Badge{CriteriaType: model.CriteriaTimeBased, CriteriaValue: 30},
			stats: badgeStats{FirstActionAt: &recentFirst},
			want:  false,
		},
		{
			name:  "time based with no actions",
			badge: model.Badge{CriteriaType: model.CriteriaTimeBased, CriteriaValue: 30},
			stats: badgeStats{},
			want:  false,
		},
		{
			name:  "unknown criteria never qualifies",
			badge: model.Badge{CriteriaType: "karma", CriteriaValue: 1},
			stats: badgeStats{CurrentStreak: 100, TotalActions: 100},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, badgeQualifies(tt.badge, tt.stats, now))
		})
	}
}

func TestEvaluateBadgesIdempotent(t *testing.T) {
	t.Parallel()

	badges := &fakeBadgeRepo{}
	actions := newFakeActionRepo()
	actions.totalActions = 5
	svc := NewBadgeService(badges, actions, newFakeStreakRepo(), nil)

	require.NoError(t, badges.CreateTemplate(context.Background(), &model.Badge{
		Name:          "First Steps",
		CriteriaType:  model.CriteriaTotalActions,
		CriteriaValue: 1,
	}))

	userID := uuid.New()
	spaceID := uuid.New()

	awarded, err := svc.EvaluateBadges(context.Background(), userID, spaceID)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "First Steps", awarded[0].Badge.Name)

	// A second pass with no state change grants nothing new
	again, err := svc.EvaluateBadges(context.Background(), userID, spaceID)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, badges.awards, 1)
}

func TestEvaluateBadgesSkipsUnqualified(t *testing.T) {
	t.Parallel()

	badges := &fakeBadgeRepo{}
	actions := newFakeActionRepo()
	actions.totalActions = 2
	svc := NewBadgeService(badges, actions, newFakeStreakRepo(), nil)

	require.NoError(t, badges.CreateTemplate(context.Background(), &model.Badge{
		Name:          "Prolific",
		CriteriaType:  model.CriteriaTotalActions,
		CriteriaValue: 10,
	}))

	awarded, err := svc.EvaluateBadges(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Empty(t, badges.awards)
}
