package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:100" json:"display_name"`
	Bio          string    `gorm:"type:text" json:"bio"`
	AvatarURL    *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	Location     string    `gorm:"size:100" json:"location"`
	Website      string    `gorm:"size:255" json:"website"`
	Pronouns     string    `gorm:"size:50" json:"pronouns"`

	// Points earned across all hobby spaces. Per-space counters live in
	// UserSpacePoints.
	TotalPoints int `gorm:"default:0" json:"total_points"`

	// Personal baseline for self-improvement scoring, recomputed from the
	// trailing 90 days of actions.
	AvgActivityFrequency float64    `gorm:"default:0" json:"avg_activity_frequency"` // actions per week
	AvgEffortLevel       float64    `gorm:"default:0" json:"avg_effort_level"`       // average effort score
	LastBaselineUpdate   *time.Time `json:"last_baseline_update,omitempty"`
	BaselineUpdateDays   int        `gorm:"default:30" json:"baseline_update_days"` // recalculate every N days

	// Feedback tokens (limited per week)
	FeedbackTokens    int        `gorm:"default:5" json:"feedback_tokens"`
	MaxWeeklyTokens   int        `gorm:"default:5" json:"max_weekly_tokens"`
	LastTokenRefillAt *time.Time `json:"last_token_refill_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserSpacePoints tracks a user's accumulated points inside one hobby space.
type UserSpacePoints struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	HobbySpaceID uuid.UUID `gorm:"type:uuid;primaryKey" json:"hobby_space_id"`
	Points       int       `gorm:"default:0" json:"points"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Follow struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"followee_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
