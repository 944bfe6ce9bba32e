package dto

import "github.com/grungysync/backend/internal/model"

type CreateHobbySpaceRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"required,max=100"`
	Description string `json:"description" binding:"required"`
	Icon        string `json:"icon" binding:"omitempty,max=50"`
	Category    string `json:"category" binding:"required,oneof=Art Music Fitness Writing Tech Learning Crafts Other"`

	ActionConfig *ActionConfigRequest `json:"action_config"`
}

type ActionConfigRequest struct {
	ValidActions             []string `json:"valid_actions" binding:"omitempty,dive,oneof=post log upload reflect"`
	MinEffortThreshold       *int     `json:"min_effort_threshold" binding:"omitempty,min=0"`
	DailyPointCap            *int     `json:"daily_point_cap" binding:"omitempty,min=1"`
	WeeklyPointCap           *int     `json:"weekly_point_cap" binding:"omitempty,min=1"`
	ConsistencyWindow        *int     `json:"consistency_window" binding:"omitempty,min=1"`
	RequiredActionsPerWindow *int     `json:"required_actions_per_window" binding:"omitempty,min=1"`
}

type UpdateHobbySpaceRequest struct {
	Description  *string              `json:"description"`
	Guidelines   *string              `json:"guidelines"`
	ActionConfig *ActionConfigRequest `json:"action_config"`
}

// HobbySpaceSummary pairs a space with its latest public action for the
// member's home view.
type HobbySpaceSummary struct {
	Space        model.HobbySpace `json:"space"`
	LatestAction *model.Action    `json:"latest_action"`
}
