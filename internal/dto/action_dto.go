package dto

import (
	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
)

type CreateActionRequest struct {
	HobbySpaceID   uuid.UUID `form:"hobby_space_id" json:"hobby_space_id" binding:"required"`
	ActionType     string    `form:"action_type" json:"action_type" binding:"required,oneof=post log upload reflect"`
	Content        string    `form:"content" json:"content"`
	LearningPoints []string  `form:"learning_points" json:"learning_points"`
	Challenges     []string  `form:"challenges" json:"challenges"`
	Visibility     string    `form:"visibility" json:"visibility" binding:"omitempty,oneof=public hobbyspace-only private"`
}

type CreateRevisionRequest struct {
	Content        string   `form:"content" json:"content"`
	LearningPoints []string `form:"learning_points" json:"learning_points"`
}

type GiveFeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,min=20"`
}

// ActionResult is what submitAction returns to the caller: the stored action
// plus the advisory improvement multiplier for the user's next action.
type ActionResult struct {
	Action                model.Action `json:"action"`
	EffortScore           int          `json:"effort_score"`
	PointsAwarded         int          `json:"points_awarded"`
	ImprovementMultiplier float64      `json:"improvement_multiplier"`
}

type DeleteActionResult struct {
	PointsDeducted int `json:"points_deducted"`
}

type ActionListResponse struct {
	Actions []model.Action `json:"actions"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}
