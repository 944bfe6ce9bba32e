package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionTypePost    = "post"
	ActionTypeLog     = "log"
	ActionTypeUpload  = "upload"
	ActionTypeReflect = "reflect"
)

// ActionConfig is the per-space scoring policy, owned by moderators and
// read-only to the scoring engine.
type ActionConfig struct {
	ValidActions             string `gorm:"size:100;default:'post,log,upload,reflect'" json:"valid_actions"` // comma separated
	MinEffortThreshold       int    `gorm:"default:50" json:"min_effort_threshold"`                          // minimum chars unless media attached
	DailyPointCap            int    `gorm:"default:50" json:"daily_point_cap"`
	WeeklyPointCap           int    `gorm:"default:300" json:"weekly_point_cap"`
	ConsistencyWindow        int    `gorm:"default:7" json:"consistency_window"` // days
	RequiredActionsPerWindow int    `gorm:"default:3" json:"required_actions_per_window"`
}

// AllowsAction reports whether the given action type is in the whitelist.
func (c ActionConfig) AllowsAction(actionType string) bool {
	for _, t := range c.ValidActionList() {
		if t == actionType {
			return true
		}
	}
	return false
}

func (c ActionConfig) ValidActionList() []string {
	return splitTrimmed(c.ValidActions)
}

type HobbySpace struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`     // emoji or icon identifier
	Category    string    `gorm:"size:50;not null" json:"category"` // 'Art', 'Music', 'Fitness', ...
	Guidelines  string    `gorm:"type:text" json:"guidelines"`
	IsPublic    bool      `gorm:"default:true" json:"is_public"`

	ActionConfig ActionConfig `gorm:"embedded;embeddedPrefix:config_" json:"action_config"`

	CreatedByID uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
	MemberCount int       `gorm:"default:0" json:"member_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *HobbySpace) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID, err = uuid.NewV7()
	}
	return
}

func splitTrimmed(s string) []string {
	return splitOn(s, ",")
}

func splitLines(s string) []string {
	return splitOn(s, "\n")
}

func splitOn(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SpaceMember links users to the hobby spaces they joined.
type SpaceMember struct {
	HobbySpaceID uuid.UUID `gorm:"type:uuid;primaryKey" json:"hobby_space_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	IsModerator  bool      `gorm:"default:false" json:"is_moderator"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
