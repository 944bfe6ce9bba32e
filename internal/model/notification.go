package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationBadgeAwarded     = "badge_awarded"
	NotificationStreakBroken     = "streak_broken"
	NotificationFeedbackReceived = "feedback_received"
)

type Notification struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ActorID  uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	Actor    *User     `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"actor,omitempty"`
	EntityID uuid.UUID `gorm:"type:uuid" json:"entity_id"`

	Type    string `gorm:"size:50;not null" json:"type"` // 'badge_awarded', 'streak_broken', 'feedback_received'
	Message string `gorm:"type:text;not null" json:"message"`
	IsRead  bool   `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
