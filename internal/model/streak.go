package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxGraceAllowance is how many gap days a streak tolerates before
// breaking.
const DefaultMaxGraceAllowance = 2

// Streak tracks rolling-window activity for one (user, hobby space) pair.
// Created lazily on the user's first action in the space, mutated on every
// action and by the daily sweep, never deleted while membership lasts.
type Streak struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_streak_user_space,priority:1;not null" json:"user_id"`
	HobbySpaceID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_streak_user_space,priority:2;not null" json:"hobby_space_id"`

	CurrentStreak int `gorm:"default:0" json:"current_streak"`
	LongestStreak int `gorm:"default:0" json:"longest_streak"`

	LastActionDate    *time.Time `json:"last_action_date,omitempty"`
	GraceUsedCount    int        `gorm:"default:0" json:"grace_used_count"`
	MaxGraceAllowance int        `gorm:"default:2" json:"max_grace_allowance"`

	// Window criteria seeded from the space config at creation.
	ActionWindow            int `gorm:"default:7" json:"action_window"` // days
	RequiredActionsInWindow int `gorm:"default:3" json:"required_actions_in_window"`

	Entries []StreakEntry `gorm:"foreignKey:StreakID" json:"entries,omitempty"`

	StreakStartDate *time.Time `json:"streak_start_date,omitempty"`
	IsActive        bool       `gorm:"default:false" json:"is_active"`
	BreakDate       *time.Time `json:"break_date,omitempty"` // when the streak lapsed

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Streak) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StreakEntry is one action timestamp inside the trailing window. Entries
// older than the window are pruned on every update.
type StreakEntry struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StreakID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"streak_id"`
	ActionID  *uuid.UUID `gorm:"type:uuid" json:"action_id,omitempty"`
	Date      time.Time  `gorm:"not null" json:"date"`
}
