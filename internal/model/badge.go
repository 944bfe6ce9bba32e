package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CriteriaStreak           = "streak"
	CriteriaTotalActions     = "total_actions"
	CriteriaFeedbackReceived = "feedback_received"
	CriteriaRevisionCount    = "revision_count"
	CriteriaReflectionPosts  = "reflection_posts"
	CriteriaTimeBased        = "time_based"
)

// Badge is a global badge template. Award instances live in UserBadge.
type Badge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	Category    string    `gorm:"size:50;not null" json:"category"` // 'consistency', 'effort', 'growth', 'learning', 'milestone'

	CriteriaType  string `gorm:"size:50;not null" json:"criteria_type"`
	CriteriaValue int    `gorm:"not null" json:"criteria_value"`
	Timeframe     string `gorm:"size:20" json:"timeframe,omitempty"` // 'weekly', 'monthly', 'all-time'

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserBadge is one award of a badge to a user within a hobby space. The
// unique index makes awards idempotent; badges are never revoked.
type UserBadge struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_user_badge_space,priority:1;not null" json:"user_id"`
	BadgeID      uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_user_badge_space,priority:2;not null" json:"badge_id"`
	Badge        Badge      `gorm:"constraint:OnDelete:CASCADE" json:"badge"`
	HobbySpaceID uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_user_badge_space,priority:3;not null" json:"hobby_space_id"`
	AwardedAt    time.Time  `gorm:"autoCreateTime" json:"awarded_at"`
}

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if ub.ID == uuid.Nil {
		ub.ID = uuid.New()
	}
	return nil
}
