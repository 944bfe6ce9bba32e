package dto

import (
	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
)

type BaselineResponse struct {
	AvgActivityFrequency float64 `json:"avg_activity_frequency"`
	AvgEffortLevel       float64 `json:"avg_effort_level"`
	LastBaselineUpdate   string  `json:"last_baseline_update,omitempty"`
	UpdateFrequencyDays  int     `json:"update_frequency_days"`
}

type ProgressAnalytics struct {
	TotalPoints            int              `json:"total_points"`
	TotalActions           int64            `json:"total_actions"`
	ActiveHobbySpaces      int64            `json:"active_hobby_spaces"`
	AverageEffortPerAction float64          `json:"average_effort_per_action"`
	Baseline               BaselineResponse `json:"baseline"`
	BadgeCount             int64            `json:"badge_count"`
}

type ProgressDashboard struct {
	Analytics ProgressAnalytics `json:"analytics"`
	Badges    []model.UserBadge `json:"badges"`
	Streaks   []model.Streak    `json:"streaks"`
}

type SpaceAnalytics struct {
	HobbySpaceID  uuid.UUID         `json:"hobby_space_id"`
	TotalActions  int64             `json:"total_actions"`
	TotalEffort   int               `json:"total_effort"`
	AverageEffort float64           `json:"average_effort"`
	TotalPoints   int               `json:"total_points"`
	ActionsByType map[string]int64  `json:"actions_by_type"`
	Streak        *model.Streak     `json:"streak"`
	Badges        []model.UserBadge `json:"badges"`
}

type ImprovementScore struct {
	ImprovementPercentage float64 `json:"improvement_percentage"`
	ActionsAboveBaseline  int     `json:"actions_above_baseline"`
	TotalActionsAnalyzed  int     `json:"total_actions_analyzed"`
	Baseline              float64 `json:"baseline"`
	EffortTrend           float64 `json:"effort_trend"`
	RecentAvgEffort       float64 `json:"recent_avg_effort"`
	OlderAvgEffort        float64 `json:"older_avg_effort"`
}
