package dto

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Position    int       `json:"position"` // 1-based
	Points      int       `json:"points"`
	Actions     int64     `json:"actions"`
	Effort      int       `json:"effort"`
}

type LeaderboardResponse struct {
	Period       string             `json:"period"`
	HobbySpaceID *uuid.UUID         `json:"hobby_space_id,omitempty"`
	Entries      []LeaderboardEntry `json:"entries"`
}
